package citation

import "testing"

func TestExtractPinpoints(t *testing.T) {
	cases := []struct {
		input    string
		expected Pinpoints
	}{
		{"Art. 5º, § 1º, Lei 13.709/2018", Pinpoints{Paragraph: "1"}},
		{"Art. 5º, §1o, LGPD", Pinpoints{Paragraph: "1"}},
		{"Art. 5º, §§ 2º, LGPD", Pinpoints{Paragraph: "2"}},
		{"Art. 18, paragrafo unico, LGPD", Pinpoints{Paragraph: ParagraphUnico}},
		{"Art. 18, § unico, LGPD", Pinpoints{Paragraph: ParagraphUnico}},
		{"Art. 7, paragrafo 3, LGPD", Pinpoints{Paragraph: "3"}},
		{"Art. 7, par. 4, LGPD", Pinpoints{Paragraph: "4"}},
		{"Art. 5º, inciso X, CF/88", Pinpoints{Inciso: "X"}},
		{"Art. 5º, inciso lxxix, CF/88", Pinpoints{Inciso: "LXXIX"}},
		{"Art. 5º, XII, CF/88", Pinpoints{Inciso: "XII"}},
		{"Art. 5º, alinea b, LGPD", Pinpoints{Alinea: "b"}},
		{`Art. 5º, alinea "c", LGPD`, Pinpoints{Alinea: "c"}},
		{"Art. 5º, § 2º, inciso IV, alinea a, LGPD", Pinpoints{Paragraph: "2", Inciso: "IV", Alinea: "a"}},
		{"Art. 6º, CDC", Pinpoints{}},
		{"Art. 1º, CC", Pinpoints{}},
		{"Art. 1º, Lei 13.709/2018", Pinpoints{}},
		{"", Pinpoints{}},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			if got := ExtractPinpoints(tc.input); got != tc.expected {
				t.Errorf("ExtractPinpoints(%q) = %+v, want %+v", tc.input, got, tc.expected)
			}
		})
	}
}
