package transcription

import "fmt"

// Variant is the transcription path chosen once per dictation session.
type Variant int

const (
	// Cloud uploads the recording to the backend service.
	Cloud Variant = iota
	// OnDevice recognizes locally and only calls the backend to format.
	OnDevice
)

func (v Variant) String() string {
	switch v {
	case Cloud:
		return "cloud"
	case OnDevice:
		return "on_device"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// ParseVariant reads a variant from configuration.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "", "cloud":
		return Cloud, nil
	case "on_device", "ondevice", "local":
		return OnDevice, nil
	default:
		return Cloud, fmt.Errorf("unknown transcription variant %q", s)
	}
}
