package quota

// Walk visits vars and everything beneath them in pre-order: a variable,
// then each of its levels, each level followed by its nested variables.
// Either callback may be nil. There is no early exit; the whole tree is
// always visited.
func Walk(vars []*FrameVariable, onVariable func(*FrameVariable), onLevel func(*FrameLevel)) {
	for _, v := range vars {
		if onVariable != nil {
			onVariable(v)
		}
		for _, l := range v.Levels {
			if onLevel != nil {
				onLevel(l)
			}
			Walk(l.Variables, onVariable, onLevel)
		}
	}
}

// Walk visits the frame's whole variable tree. See the package-level Walk.
func (f *Frame) Walk(onVariable func(*FrameVariable), onLevel func(*FrameLevel)) {
	Walk(f.Variables, onVariable, onLevel)
}
