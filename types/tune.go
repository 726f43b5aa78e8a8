package types

import "fmt"

// TunePolicy selects how one stage of a tune request is chosen.
type TunePolicy uint8

const (
	PolicyAuto   TunePolicy = iota // derived from the target frequency
	PolicyManual                   // use the frequency given in the request
	PolicyNone                     // leave the stage untouched
)

// TuneRequest asks for a center frequency split between the RF front end
// and the DSP mixer.
type TuneRequest struct {
	TargetFreq float64
	RFPolicy   TunePolicy
	RFFreq     float64 // for PolicyManual
	DSPPolicy  TunePolicy
	DSPFreq    float64 // for PolicyManual
	// LOOffset moves the RF stage away from the target (e.g. out of a DC
	// spur); the DSP makes up the difference.
	LOOffset float64
}

// Tune builds an automatic request for freq.
func Tune(freq float64) TuneRequest { return TuneRequest{TargetFreq: freq} }

// TuneWithLOOffset builds an automatic request with an LO offset.
func TuneWithLOOffset(freq, loOff float64) TuneRequest {
	return TuneRequest{TargetFreq: freq, LOOffset: loOff}
}

// TuneResult reports what each stage was asked for and what it achieved.
type TuneResult struct {
	TargetRFFreq  float64
	ActualRFFreq  float64
	TargetDSPFreq float64
	ActualDSPFreq float64
}

// RFDelta is actual minus target for the RF stage.
func (r TuneResult) RFDelta() float64 { return r.ActualRFFreq - r.TargetRFFreq }

// DSPDelta is actual minus target for the DSP stage.
func (r TuneResult) DSPDelta() float64 { return r.ActualDSPFreq - r.TargetDSPFreq }

// Freq is the realised center frequency.
func (r TuneResult) Freq() float64 { return r.ActualRFFreq + r.ActualDSPFreq }

func (r TuneResult) String() string {
	return fmt.Sprintf("Tune Result:\n"+
		"    Target RF  Freq: %f (MHz)\n"+
		"    Actual RF  Freq: %f (MHz)\n"+
		"    Target DSP Freq: %f (MHz)\n"+
		"    Actual DSP Freq: %f (MHz)\n",
		r.TargetRFFreq/1e6, r.ActualRFFreq/1e6, r.TargetDSPFreq/1e6, r.ActualDSPFreq/1e6)
}
