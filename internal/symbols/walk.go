package symbols

// Variable is a static data symbol together with the procedure that
// encloses it, if any.
type Variable struct {
	DataSym

	// Function is the name of the nearest enclosing procedure.
	Function string
	HasFunc  bool
}

type scope struct {
	proc bool
	name string
}

// WalkData calls fn for every named static data symbol produced by it.
// Procedures, blocks, thunks and inline sites open scopes that are closed
// by S_END and its variants. A scope record that fails to parse still opens
// a scope so that the stack stays balanced.
func WalkData(it *SymbolIterator, fn func(v Variable)) error {
	var stack []scope
	for {
		rec, err := it.Next()
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}

		switch {
		case rec.Kind.EndsScope():
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case rec.Kind.StartsScope():
			stack = append(stack, openScope(rec))
		case rec.Kind.IsData():
			sym, err := ParseDataSym(rec)
			if err != nil || sym.Name == "" {
				continue
			}
			v := Variable{DataSym: *sym}
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].proc {
					v.Function, v.HasFunc = stack[i].name, true
					break
				}
			}
			fn(v)
		}
	}
}

func openScope(rec *SymbolRecord) scope {
	switch {
	case rec.Kind.IsProc():
		if p, err := ParseProcSym(rec); err == nil {
			return scope{proc: true, name: p.Name}
		}
	case rec.Kind == S_BLOCK32:
		if b, err := ParseBlockSym(rec); err == nil {
			return scope{name: b.Name}
		}
	}
	return scope{}
}
