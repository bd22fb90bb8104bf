package types

import "testing"

func TestLabelsCollapseUnroutedNames(t *testing.T) {
	cases := []struct {
		program, op      string
		wantProg, wantOp string
	}{
		{ProgramCDP, OpMint, ProgramCDP, OpMint},
		{ProgramIssuance, OpSetMetadata, ProgramIssuance, OpSetMetadata},
		{ProgramCDP, OpMintTokens, ProgramCDP, UnknownLabel},
		{ProgramIssuance, "teleport", ProgramIssuance, UnknownLabel},
		{"junk-1", OpMint, UnknownLabel, UnknownLabel},
		{"", "", UnknownLabel, UnknownLabel},
	}
	for _, tc := range cases {
		program, op := Labels(tc.program, tc.op)
		if program != tc.wantProg || op != tc.wantOp {
			t.Fatalf("Labels(%q, %q) = %q, %q; want %q, %q", tc.program, tc.op, program, op, tc.wantProg, tc.wantOp)
		}
	}
}
