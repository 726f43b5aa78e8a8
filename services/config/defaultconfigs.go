package config

import (
	"fmt"
	"slices"
	"strings"
)

// Embedded device profiles, selectable by name instead of a file.

const cfgDefault = `
device:
  name: usrp-sim
  mboards:
    - name: sim-0
      master_clock_rate: 64e6
      rx_dboard_id: "0x0001"
      tx_dboard_id: "0x0000"
      rx_subdev_spec: "A:a"
      tx_subdev_spec: "A:"
`

const cfgXcvr2x = `
device:
  name: usrp-xcvr-2x
  mboards:
    - name: sim-0
      master_clock_rate: 64e6
      rx_dboard_id: "0x0057"
      tx_dboard_id: "0x0057"
      rx_subdev_spec: "A:0"
      tx_subdev_spec: "A:0"
    - name: sim-1
      master_clock_rate: 64e6
      rx_dboard_id: "0x0057"
      tx_dboard_id: "0x0057"
      rx_subdev_spec: "A:0"
      tx_subdev_spec: "A:0"
`

const cfgNoPPS = `
device:
  name: usrp-nopps
  mboards:
    - name: sim-0
      master_clock_rate: 64e6
      rx_dboard_id: "0x0001"
      tx_dboard_id: "0x0000"
      rx_subdev_spec: "A:a"
      tx_subdev_spec: "A:"
    - name: sim-1
      master_clock_rate: 64e6
      rx_dboard_id: "0x0001"
      tx_dboard_id: "0x0000"
      rx_subdev_spec: "A:a"
      tx_subdev_spec: "A:"
sync:
  no_pps: true
`

var embeddedConfigs = map[string]string{
	"default": cfgDefault,
	"xcvr-2x": cfgXcvr2x,
	"nopps":   cfgNoPPS,
}

// EmbeddedConfigLookup allows overriding how profiles are resolved.
var EmbeddedConfigLookup = func(name string) ([]byte, bool) {
	s, ok := embeddedConfigs[name]
	return []byte(s), ok
}

// Profiles lists the embedded profile names.
func Profiles() []string {
	names := make([]string, 0, len(embeddedConfigs))
	for k := range embeddedConfigs {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// LoadProfile parses the named embedded profile.
func LoadProfile(name string) (*Config, error) {
	raw, ok := EmbeddedConfigLookup(name)
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("no embedded config %q (have %s)", name, strings.Join(Profiles(), ", "))
	}
	return Parse(raw)
}
