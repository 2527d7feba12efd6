package config

const (
	defaultStateDir              = "~/.local/share/stitchcast"
	defaultLogDir                = "~/.local/share/stitchcast/logs"
	defaultRecordLocation        = "~/Videos/stitchcast/raw"
	defaultStitcherLocation      = "/usr/local/bin/stitcher"
	defaultSaveLocation          = "~/Videos/stitchcast"
	defaultWidth                 = 3840
	defaultHeight                = 1920
	defaultBackendSocketName     = "backend.sock"
	defaultBackendDialTimeout    = 2
	defaultBackendSendBuffer     = 64
	defaultUploadRequestTimeout  = 120
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultDeviceWatch           = true
	defaultNotifyVetoes          = false
	defaultNotifyUploads         = true
	defaultControlSocketFileName = "stitchcast.sock"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Capture: Capture{
			CameraIndex:      0,
			PreviewIndex:     0,
			RecordLocation:   defaultRecordLocation,
			StitcherLocation: defaultStitcherLocation,
			Width:            defaultWidth,
			Height:           defaultHeight,
		},
		Upload: Upload{
			Location:       defaultSaveLocation,
			RequestTimeout: defaultUploadRequestTimeout,
		},
		Backend: Backend{
			DialTimeout: defaultBackendDialTimeout,
			SendBuffer:  defaultBackendSendBuffer,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Vetoes:         defaultNotifyVetoes,
			Uploads:        defaultNotifyUploads,
		},
		Devices: Devices{
			Watch: defaultDeviceWatch,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
