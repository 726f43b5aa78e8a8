package usrp

import (
	"fmt"
	"strings"

	"usrphost-go/prop"
)

// PPString renders a human-readable summary of the device: its boards and
// the DSP, dboard and sub-device behind every channel.
func (u *USRP) PPString() (string, error) {
	var b strings.Builder
	n, err := u.NumMboards()
	if err != nil {
		return "", err
	}
	name, err := prop.Read[string](u.dev, prop.K(prop.Name))
	if err != nil {
		return "", err
	}
	kind := "Single"
	if n > 1 {
		kind = "Multi"
	}
	fmt.Fprintf(&b, "%s USRP:\n  Device: %s\n", kind, name)
	for m := range n {
		mbName, err := u.MboardName(m)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "  Mboard %d: %s\n", m, mbName)
	}
	for _, s := range []side{rxSide, txSide} {
		if err := u.ppChannels(&b, s); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func (u *USRP) ppChannels(b *strings.Builder, s side) error {
	total, err := u.numChannels(s)
	if err != nil {
		return err
	}
	for ch := range total {
		c, err := u.channel(s, ch)
		if err != nil {
			return err
		}
		var names [3]string
		for i, n := range []prop.Node{c.dsp, c.dboard, c.subdev} {
			if names[i], err = prop.Read[string](n, prop.K(prop.Name)); err != nil {
				return err
			}
		}
		fmt.Fprintf(b, "  %[1]s Channel: %[2]d\n    %[1]s DSP: %[3]s\n    %[1]s Dboard: %[4]s\n    %[1]s Subdev: %[5]s\n",
			s.label, ch, names[0], names[1], names[2])
	}
	return nil
}
