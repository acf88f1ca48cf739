package event

// Stats is a point-in-time bundle of monitoring counters grouped by
// subsystem. Counters are cumulative since subsystem start; a producer
// that does not run a given subsystem reports its group as zeros.
// Redaction never applies to stats.
type Stats struct {
	Header
	Evtloop    EvtloopStats  `json:"evtloop"`
	Procmon    ProcmonStats  `json:"procmon"`
	Accessmon  MonitorStats  `json:"accessmon"`
	Servicemon ServiceStats  `json:"servicemon"`
	Sockmon    MonitorStats  `json:"sockmon"`
	WorkQueue  QueueStats    `json:"work_queue"`
	LogQueue   LogQueueStats `json:"log_queue"`
	HashCache  CacheStats    `json:"hash_cache"`
	CsigCache  CacheStats    `json:"csig_cache"`
	LdplCache  CacheStats    `json:"ldpl_cache"`
}

// EvtloopStats counts event loop level conditions.
type EvtloopStats struct {
	// Lost counts events dropped before they could be decoded.
	Lost uint64 `json:"lost"`
	// Unknown counts events of a kind the loop does not understand.
	Unknown        uint64 `json:"unknown"`
	FailedSyscalls uint64 `json:"failedsyscall"`
	MissingToken   uint64 `json:"missingtoken"`
	OOM            uint64 `json:"oom"`
}

// ProcmonStats counts process tracking state and lookup misses.
type ProcmonStats struct {
	Procs   uint64          `json:"actprocs"`
	Images  uint64          `json:"actexecimages"`
	Liveacq uint64          `json:"liveacq"`
	Miss    ProcmonMissList `json:"miss"`
	OOM     uint64          `json:"oom"`
}

// ProcmonMissList breaks process tracking misses down by lookup site.
type ProcmonMissList struct {
	ByPID      uint64 `json:"bypid"`
	ForkSubj   uint64 `json:"forksubj"`
	ExecSubj   uint64 `json:"execsubj"`
	ExecInterp uint64 `json:"execinterp"`
	ChdirSubj  uint64 `json:"chdirsubj"`
	GetCWD     uint64 `json:"getcwd"`
}

// MonitorStats is the received/processed pair common to the secondary
// monitors.
type MonitorStats struct {
	Recvd uint64 `json:"recvd"`
	Procd uint64 `json:"procd"`
	OOM   uint64 `json:"oom"`
}

// ServiceStats extends MonitorStats with the plist lookup miss counter of
// the service registration monitor.
type ServiceStats struct {
	Recvd  uint64 `json:"recvd"`
	Procd  uint64 `json:"procd"`
	LPMiss uint64 `json:"lpmiss"`
	OOM    uint64 `json:"oom"`
}

// QueueStats reports the depth of a work queue.
type QueueStats struct {
	Buckets uint64 `json:"buckets"`
}

// LogQueueStats reports the record emission queue: its depth, the number
// of records emitted per event code, and emission errors.
type LogQueueStats struct {
	Buckets uint64            `json:"buckets"`
	Events  [CodeCount]uint64 `json:"events"`
	Errors  uint64            `json:"errors"`
}

// CacheStats reports one lookup cache.
type CacheStats struct {
	Buckets   uint64 `json:"buckets"`
	BucketMax uint64 `json:"bucketmax"`
	Puts      uint64 `json:"put"`
	Gets      uint64 `json:"get"`
	Hits      uint64 `json:"hit"`
	Misses    uint64 `json:"miss"`
	Invalids  uint64 `json:"inv"`
}
