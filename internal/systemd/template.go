package systemd

// DaemonTemplate returns the systemd unit for the esmon spool daemon.
// ExecReload delivers SIGHUP, which the daemon maps to reopening the
// record destination for log rotation.
func DaemonTemplate() string {
	return `[Unit]
Description=esmon security event record daemon
After=local-fs.target

[Service]
Type=simple
User=esmon
Group=esmon
ExecStart=/usr/local/bin/esmon daemon --spool /var/spool/esmon --state /var/lib/esmon
ExecReload=/bin/kill -HUP $MAINPID
Restart=on-failure
RestartSec=2
NoNewPrivileges=true
PrivateTmp=true
ProtectSystem=strict
ProtectHome=true
ProtectKernelTunables=true
RestrictNamespaces=true
MemoryDenyWriteExecute=true
ReadWritePaths=/var/spool/esmon /var/lib/esmon /var/log/esmon
CPUQuota=30%
MemoryMax=256M
TasksMax=30

[Install]
WantedBy=multi-user.target
`
}
