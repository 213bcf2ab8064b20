package diag_test

import (
	"bytes"
	"testing"

	"code.hybscloud.com/mprompt/diag"
	"code.hybscloud.com/mprompt/mprompt"
	"code.hybscloud.com/mprompt/shadow"
)

func TestSnapshotReportsActiveKindAndPoolCounts(t *testing.T) {
	s := mprompt.NewSite()
	defer s.Close()

	k := shadow.NewKind("diag-test")
	var sawKind bool
	s.Prompt(k,
		func() any { return nil },
		func(hdata, arg any) any {
			p := diag.Snapshot(s)
			for _, sample := range p.Sample {
				if len(sample.Location) == 0 || len(sample.Location[0].Line) == 0 {
					continue
				}
				if sample.Location[0].Line[0].Function.Name == "kind:"+k.String() {
					sawKind = true
				}
			}
			return nil
		},
		func(hdata, arg any) any { return arg },
		nil,
	)

	if !sawKind {
		t.Fatalf("Snapshot did not report the active kind %q", k.String())
	}

	var buf bytes.Buffer
	if err := diag.Write(&buf, s); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("Write produced no output")
	}
}
