package display

// Merge fans every call out to all given surfaces, in order.
// Views missing from one surface do not affect the others.
func Merge(surfaces ...*Surface) *Surface {
	var kept []*Surface
	for _, s := range surfaces {
		if s != nil {
			kept = append(kept, s)
		}
	}
	if len(kept) == 1 {
		return kept[0]
	}
	return Bind(fanout(kept))
}

type fanout []*Surface

func (f fanout) SetMeta(key, value string) {
	for _, s := range f {
		s.SetMeta(key, value)
	}
}

func (f fanout) RenderCases(rows []Row) {
	for _, s := range f {
		s.RenderCases(rows)
	}
}

func (f fanout) SetBigResult(pass bool) {
	for _, s := range f {
		s.SetBigResult(pass)
	}
}

func (f fanout) AppendLog(line string) {
	for _, s := range f {
		s.AppendLog(line)
	}
}

func (f fanout) ShowCode(code Code) {
	for _, s := range f {
		s.ShowCode(code)
	}
}

func (f fanout) ShowBox(box Box) {
	for _, s := range f {
		s.ShowBox(box)
	}
}

func (f fanout) Hide() {
	for _, s := range f {
		s.Hide()
	}
}
