package silo

// Write converts designer-facing data for one component instance into
// a flat map of column name -> storage-ready value (spec §4.2's write
// program). data may be nil, a map[string]any keyed by schema property,
// or a bare scalar shorthand, which is assigned to the first schema key
// in sorted order (tag components reject it). packed
// resolves packed-array pool storage (archetypeInternal.packedSink);
// it may be nil for components with no KindPackedArray properties.
func (info *ComponentInfo) Write(interner *Interner, data any, packed PackedArraySink) (map[string]any, error) {
	m, err := info.normalizeData(data)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]any, len(info.SchemaKeys))
	for _, k := range info.SchemaKeys {
		if v, ok := m[k]; ok {
			resolved[k] = v
		} else {
			resolved[k] = info.Defaults[k]
		}
	}

	out := make(map[string]any, len(info.Columns))
	handled := make(map[string]bool, len(info.WriteProgram))
	for _, op := range info.WriteProgram {
		handled[op.property] = true
		rep := info.Reps[op.property]
		cols, err := executeWriteOp(rep, resolved[op.property], interner, packed)
		if err != nil {
			if ive, ok := err.(InvalidValueError); ok {
				ive.Component = info.Name
				ive.Property = op.property
				return nil, ive
			}
			return nil, err
		}
		for cn, cv := range cols {
			out[cn] = cv
		}
	}
	for _, k := range info.SchemaKeys {
		if handled[k] {
			continue
		}
		out[k] = resolved[k]
	}
	return out, nil
}

func (info *ComponentInfo) normalizeData(data any) (map[string]any, error) {
	if data == nil {
		return map[string]any{}, nil
	}
	if m, ok := data.(map[string]any); ok {
		return m, nil
	}
	if info.IsTag {
		return nil, InvalidValueError{Component: info.Name, Value: data}
	}
	switch data.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, string, bool, []string, []any:
		return map[string]any{info.FirstKey: data}, nil
	}
	return nil, InvalidValueError{Component: info.Name, Value: data}
}

func executeWriteOp(rep representation, value any, interner *Interner, packed PackedArraySink) (map[string]any, error) {
	switch rep.Kind {
	case KindEnum:
		idx, err := resolveEnumIndex(rep, value)
		if err != nil {
			return nil, err
		}
		return map[string]any{rep.ColumnName: idx}, nil

	case KindBitmask:
		bits, err := resolveBitmaskBits(rep, value)
		if err != nil {
			return nil, err
		}
		return map[string]any{rep.ColumnName: bits}, nil

	case KindString:
		if value == nil {
			return map[string]any{rep.ColumnName: uint32(0)}, nil
		}
		s, ok := value.(string)
		if !ok {
			return nil, InvalidValueError{Value: value}
		}
		return map[string]any{rep.ColumnName: interner.Intern(s)}, nil

	case KindFlatArray:
		return executeFlatArrayWrite(rep, value, interner)

	case KindPackedArray:
		return executePackedArrayWrite(rep, value, packed)

	case KindRPN:
		return executeRPNWrite(rep, value, interner)

	default:
		return nil, InvalidValueError{Value: value}
	}
}

// executePackedArrayWrite allocates value's items into the
// archetype-level pool packed resolves for rep.Property, returning the
// _startIndex/_length columns the entity's row stores (spec §3, §4.2).
func executePackedArrayWrite(rep representation, value any, packed PackedArraySink) (map[string]any, error) {
	items, ok := toSlice(value)
	if !ok {
		return nil, InvalidValueError{Value: value}
	}
	if packed == nil {
		if len(items) == 0 {
			return map[string]any{rep.PackedStartCol: uint32(0), rep.PackedLengthCol: uint16(0)}, nil
		}
		return nil, InvalidValueError{Value: value}
	}
	start, length := packed.Alloc(rep.Property, items)
	return map[string]any{rep.PackedStartCol: start, rep.PackedLengthCol: length}, nil
}

func resolveEnumIndex(rep representation, value any) (int, error) {
	switch v := value.(type) {
	case string:
		idx, ok := rep.EnumIndex[v]
		if !ok {
			return 0, InvalidValueError{Value: v}
		}
		return idx, nil
	case int:
		return v, nil
	default:
		n, ok := asInt(value)
		if !ok {
			return 0, InvalidValueError{Value: value}
		}
		return n, nil
	}
}

func resolveBitmaskBits(rep representation, value any) (uint64, error) {
	switch v := value.(type) {
	case []string:
		var bits uint64
		for _, label := range v {
			i, ok := rep.BitmaskIndex[label]
			if !ok {
				return 0, InvalidValueError{Value: label}
			}
			bits |= 1 << uint(i)
		}
		return bits, nil
	case []any:
		var bits uint64
		for _, item := range v {
			label, ok := item.(string)
			if !ok {
				return 0, InvalidValueError{Value: item}
			}
			i, ok := rep.BitmaskIndex[label]
			if !ok {
				return 0, InvalidValueError{Value: label}
			}
			bits |= 1 << uint(i)
		}
		return bits, nil
	default:
		n, ok := asUint(value)
		if !ok {
			return 0, InvalidValueError{Value: value}
		}
		return n, nil
	}
}

func toSlice(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []float32:
		out := make([]any, len(v))
		for i, f := range v {
			out[i] = f
		}
		return out, true
	case nil:
		return nil, true
	default:
		return nil, false
	}
}

func executeFlatArrayWrite(rep representation, value any, interner *Interner) (map[string]any, error) {
	items, ok := toSlice(value)
	if !ok {
		return nil, InvalidValueError{Value: value}
	}
	if len(items) > rep.ArrayCapacity {
		items = items[:rep.ArrayCapacity]
	}
	out := make(map[string]any, len(rep.ArrayColumns)+1)
	for i, colName := range rep.ArrayColumns {
		if i < len(items) {
			v, err := processArrayItem(rep, items[i], interner)
			if err != nil {
				return nil, err
			}
			out[colName] = v
		} else {
			out[colName] = zeroForKind(rep.ArrayItemKind)
		}
	}
	out[rep.ArrayLengthCol] = uint8(len(items))
	return out, nil
}

func processArrayItem(rep representation, v any, interner *Interner) (any, error) {
	switch rep.ArrayItemKind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, InvalidValueError{Value: v}
		}
		return interner.Intern(s), nil
	case KindEnum:
		return resolveEnumIndex(*rep.ArrayItemRep, v)
	default:
		return v, nil
	}
}

func executeRPNWrite(rep representation, value any, interner *Interner) (map[string]any, error) {
	formulas, ok := toStringSlice(value)
	if !ok {
		return nil, InvalidValueError{Value: value}
	}
	if rep.RPNParser == nil {
		return nil, InvalidValueError{Value: value}
	}
	if len(formulas) > rep.RPNFormulaCapacity {
		formulas = formulas[:rep.RPNFormulaCapacity]
	}

	stream := make([]any, 0, rep.RPNStreamCapacity)
	starts := make([]any, len(formulas))
	lengths := make([]any, len(formulas))
	for i, f := range formulas {
		if f == "" {
			starts[i] = int16(-1)
			lengths[i] = uint8(0)
			continue
		}
		opcodes, err := rep.RPNParser.Parse(f)
		if err != nil {
			return nil, InvalidValueError{Value: f}
		}
		start := len(stream)
		if start+len(opcodes) > rep.RPNStreamCapacity {
			room := rep.RPNStreamCapacity - start
			if room < 0 {
				room = 0
			}
			opcodes = opcodes[:room]
		}
		for _, o := range opcodes {
			stream = append(stream, o)
		}
		starts[i] = int16(start)
		lengths[i] = uint8(len(opcodes))
	}

	streamCols, err := executeFlatArrayWrite(*rep.RPNStreamRep, stream, interner)
	if err != nil {
		return nil, err
	}
	startsCols, err := executeFlatArrayWrite(*rep.RPNStartsRep, starts, interner)
	if err != nil {
		return nil, err
	}
	lengthsCols, err := executeFlatArrayWrite(*rep.RPNLengthsRep, lengths, interner)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(streamCols)+len(startsCols)+len(lengthsCols))
	for k, v := range streamCols {
		out[k] = v
	}
	for k, v := range startsCols {
		out[k] = v
	}
	for k, v := range lengthsCols {
		out[k] = v
	}
	return out, nil
}

func toStringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	case nil:
		return nil, true
	default:
		return nil, false
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func asUint(v any) (uint64, bool) {
	n, ok := asInt(v)
	if !ok {
		return 0, false
	}
	return uint64(n), true
}

// Read reconstructs the designer-facing value for every schema
// property of one row from columnValues, a map of column name to the
// natively-typed value stored there (spec §4.2's read program, the
// write program's inverse). packed resolves packed-array pool storage
// the same way Write's does; it may be nil for components with no
// KindPackedArray properties.
func (info *ComponentInfo) Read(interner *Interner, columnValues map[string]any, packed PackedArraySink) map[string]any {
	out := make(map[string]any, len(info.SchemaKeys))
	handled := make(map[string]bool, len(info.ReadProgram))
	for _, op := range info.ReadProgram {
		handled[op.property] = true
		out[op.property] = executeReadOp(info.Reps[op.property], columnValues, interner, packed)
	}
	for _, k := range info.SchemaKeys {
		if handled[k] {
			continue
		}
		out[k] = columnValues[k]
	}
	return out
}

func executeReadOp(rep representation, columnValues map[string]any, interner *Interner, packed PackedArraySink) any {
	switch rep.Kind {
	case KindEnum:
		idx, _ := asInt(columnValues[rep.ColumnName])
		if idx >= 0 && idx < len(rep.EnumLabels) {
			return rep.EnumLabels[idx]
		}
		return ""

	case KindBitmask:
		bits, _ := asUint(columnValues[rep.ColumnName])
		var labels []string
		for i, label := range rep.BitmaskFlags {
			if bits&(1<<uint(i)) != 0 {
				labels = append(labels, label)
			}
		}
		return labels

	case KindString:
		h, _ := asUint(columnValues[rep.ColumnName])
		s, _ := interner.Lookup(uint32(h))
		return s

	case KindFlatArray:
		return readFlatArray(rep, columnValues, interner)

	case KindPackedArray:
		start, _ := asUint(columnValues[rep.PackedStartCol])
		length, _ := asUint(columnValues[rep.PackedLengthCol])
		if packed == nil {
			return []any{}
		}
		return packed.Slice(rep.Property, uint32(start), uint16(length))

	case KindRPN:
		return map[string]any{
			"_rpnStream":      readFlatArray(*rep.RPNStreamRep, columnValues, interner),
			"_formulaStarts":  readFlatArray(*rep.RPNStartsRep, columnValues, interner),
			"_formulaLengths": readFlatArray(*rep.RPNLengthsRep, columnValues, interner),
		}

	default:
		return nil
	}
}

func readFlatArray(rep representation, columnValues map[string]any, interner *Interner) []any {
	n, _ := asInt(columnValues[rep.ArrayLengthCol])
	if n < 0 {
		n = 0
	}
	if n > len(rep.ArrayColumns) {
		n = len(rep.ArrayColumns)
	}
	out := make([]any, n)
	for i := 0; i < n; i++ {
		raw := columnValues[rep.ArrayColumns[i]]
		switch rep.ArrayItemKind {
		case KindString:
			h, _ := asUint(raw)
			s, _ := interner.Lookup(uint32(h))
			out[i] = s
		case KindEnum:
			idx, _ := asInt(raw)
			if rep.ArrayItemRep != nil && idx >= 0 && idx < len(rep.ArrayItemRep.EnumLabels) {
				out[i] = rep.ArrayItemRep.EnumLabels[idx]
			} else {
				out[i] = ""
			}
		default:
			out[i] = raw
		}
	}
	return out
}
