//go:build !windows

package input

type unsupportedSender struct{}

func newSender() (Sender, error) {
	return unsupportedSender{}, nil
}

func (unsupportedSender) Send([]Stroke) error {
	return ErrUnsupported
}
