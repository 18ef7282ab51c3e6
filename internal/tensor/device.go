package tensor

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices. Only CPU is implemented; the enum exists so the
// Backend contract can name its device.
const (
	CPU Device = iota
	CUDA
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}
