package driver

import "os"

// allocConfEnv is read by the accelerator allocator of runner processes
// spawned from this one. Capping the split size reduces fragmentation when
// large generation batches allocate and free big blocks.
const allocConfEnv = "PYTORCH_CUDA_ALLOC_CONF"

const defaultAllocConf = "max_split_size_mb:512"

// ApplyAllocConf applies the process-wide allocator configuration. It is an
// explicit startup step invoked by the CLI before any model is loaded, not
// ambient state mutated during a run. An empty conf applies the default.
func ApplyAllocConf(conf string) error {
	if conf == "" {
		conf = defaultAllocConf
	}
	return os.Setenv(allocConfEnv, conf)
}
