package dest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// publishMethod is the collector's client-streaming publish RPC. Each
// record travels as a BytesValue; the collector answers with Empty once
// the stream closes.
const publishMethod = "/esmon.v1.Collector/Publish"

var publishDesc = &grpc.StreamDesc{
	StreamName:    "Publish",
	ClientStreams: true,
}

// Collector forwards records to a remote collector over gRPC.
type Collector struct {
	mu     sync.Mutex
	conn   *grpc.ClientConn
	ctx    context.Context
	cancel context.CancelFunc
	stream grpc.ClientStream
}

// DialCollector connects to a collector at addr. The connection is
// established lazily on the first write.
func DialCollector(addr string) (*Collector, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dest: dial collector: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{conn: conn, ctx: ctx, cancel: cancel}, nil
}

func (d *Collector) Write(rec []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return errors.New("dest: collector is closed")
	}
	if d.stream == nil {
		stream, err := d.conn.NewStream(d.ctx, publishDesc, publishMethod)
		if err != nil {
			return fmt.Errorf("dest: open publish stream: %w", err)
		}
		d.stream = stream
	}
	if err := d.stream.SendMsg(wrapperspb.Bytes(rec)); err != nil {
		// A broken stream is abandoned; the next write opens a new one.
		d.stream = nil
		return fmt.Errorf("dest: publish record: %w", err)
	}
	return nil
}

func (d *Collector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return nil
	}
	var first error
	if d.stream != nil {
		if err := d.stream.CloseSend(); err != nil && first == nil {
			first = err
		}
		if err := d.stream.RecvMsg(&emptypb.Empty{}); err != nil && !errors.Is(err, io.EOF) && first == nil {
			first = err
		}
		d.stream = nil
	}
	d.cancel()
	if err := d.conn.Close(); err != nil && first == nil {
		first = err
	}
	d.conn = nil
	return first
}
