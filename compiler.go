package silo

import (
	"fmt"
	"sort"
)

const maxBitmaskFlags = 32

// representation carries everything compileProperty derived for one
// schema property beyond its raw Property descriptor: label<->index
// maps, storage widths, and the column names that hold it.
type representation struct {
	Kind PropertyKind

	// Property is the schema key this representation was compiled
	// for, used as the archetype-level packedPool lookup key for
	// KindPackedArray (pool.go, archetype.go's at.pools).
	Property string

	// Enum / Bitmask / String: the single backing column.
	ColumnName string

	// Enum
	EnumLabels []string
	EnumIndex  map[string]int
	EnumWidth  primitiveKind

	// Bitmask
	BitmaskFlags []string
	BitmaskIndex map[string]int
	BitmaskWidth primitiveKind

	// FlatArray
	ArrayCapacity  int
	ArrayItemKind  PropertyKind
	ArrayItemRep   *representation
	ArrayColumns   []string
	ArrayLengthCol string

	// PackedArray
	PackedItemKind  PropertyKind
	PackedStartCol  string
	PackedLengthCol string

	// RPN
	RPNFormulaCapacity int
	RPNStreamCapacity  int
	RPNParser          RPNParser
	RPNStreamRep       *representation
	RPNStartsRep       *representation
	RPNLengthsRep      *representation
}

// ColumnInfo names one compiled SoA column and its storage primitive.
type ColumnInfo struct {
	Name string
	Kind primitiveKind
}

// ComponentInfo is the compiled output of CompileSchema: a packed
// column layout plus write/read programs (spec §3, §4.2).
type ComponentInfo struct {
	Name       string
	ByteSize   int
	Columns    []ColumnInfo
	SchemaKeys []string
	Reps       map[string]representation
	Defaults   map[string]any

	WriteProgram []writeOp
	ReadProgram  []readOp

	// FirstKey is the schema key shorthand scalar data is assigned to:
	// the first key in sorted order, for any non-tag component.
	FirstKey string
	IsTag    bool
}

// widthForCount returns the narrowest unsigned width that can index n
// distinct labels (spec §3 enum width rule).
func widthForCount(n int) primitiveKind {
	switch {
	case n <= 256:
		return pU8
	case n <= 65536:
		return pU16
	default:
		return pU32
	}
}

// bitmaskWidth returns the narrowest unsigned width that can hold n
// flag bits. The spec is explicit only about enum widths; this mirrors
// that rule one tier at a time for bitmasks (documented in DESIGN.md).
func bitmaskWidth(n int) primitiveKind {
	switch {
	case n <= 8:
		return pU8
	case n <= 16:
		return pU16
	default:
		return pU32
	}
}

func zeroForKind(k PropertyKind) any {
	switch k {
	case KindString:
		return uint32(0)
	default:
		return 0
	}
}

// CompileSchema translates a designer-facing Schema into a packed
// column layout and write/read programs (spec §3, §4.2). Columns are
// sorted by name, giving a deterministic, content-addressable layout.
func CompileSchema(name string, schema Schema) (*ComponentInfo, error) {
	isTag := schema.IsTag()

	keys := make([]string, 0, len(schema))
	for k := range schema {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var allColumns []ColumnInfo
	reps := make(map[string]representation, len(schema))
	defaults := make(map[string]any, len(schema))

	for _, k := range keys {
		prop := schema[k]
		cols, rep, err := compileProperty(k, prop)
		if err != nil {
			if ise, ok := err.(InvalidSchemaError); ok {
				ise.Component = name
				ise.Property = k
				return nil, ise
			}
			return nil, err
		}
		rep.Property = k
		allColumns = append(allColumns, cols...)
		reps[k] = rep
		defaults[k] = defaultDesignerValue(prop)
	}

	sort.Slice(allColumns, func(i, j int) bool { return allColumns[i].Name < allColumns[j].Name })

	seen := make(map[string]bool, len(allColumns))
	byteSize := 0
	for _, c := range allColumns {
		if seen[c.Name] {
			return nil, InvalidSchemaError{Component: name, Reason: fmt.Sprintf("duplicate column name %q", c.Name)}
		}
		seen[c.Name] = true
		byteSize += c.Kind.size()
	}

	var writeProgram []writeOp
	var readProgram []readOp
	for _, k := range keys {
		op, ok := opcodeFor(reps[k].Kind)
		if !ok {
			continue
		}
		writeProgram = append(writeProgram, writeOp{op: op, property: k})
		readProgram = append(readProgram, readOp{op: op, property: k})
	}

	first := ""
	if !isTag {
		first = keys[0]
	}

	return &ComponentInfo{
		Name:         name,
		ByteSize:     byteSize,
		Columns:      allColumns,
		SchemaKeys:   keys,
		Reps:         reps,
		Defaults:     defaults,
		WriteProgram: writeProgram,
		ReadProgram:  readProgram,
		FirstKey:     first,
		IsTag:        isTag,
	}, nil
}

func defaultDesignerValue(p Property) any {
	switch p.Kind {
	case KindF64, KindF32:
		return 0.0
	case KindBool:
		return false
	case KindString:
		return ""
	case KindBitmask:
		return []string{}
	case KindFlatArray, KindPackedArray:
		return []any{}
	case KindRPN:
		return []string{}
	default:
		return 0
	}
}

// compileProperty compiles one schema property into its backing
// columns and representation. name is used to derive column names for
// the kinds that need more than one (array element/length/start
// columns, per spec §3's naming convention).
func compileProperty(name string, p Property) ([]ColumnInfo, representation, error) {
	switch {
	case p.Kind.isPrimitive():
		return []ColumnInfo{{Name: name, Kind: p.Kind.primitive()}}, representation{Kind: p.Kind}, nil

	case p.Kind == KindString:
		return []ColumnInfo{{Name: name, Kind: pU32}}, representation{Kind: KindString, ColumnName: name}, nil

	case p.Kind == KindEnum:
		if len(p.Labels) == 0 {
			return nil, representation{}, InvalidSchemaError{Reason: "enum requires at least one label"}
		}
		width := widthForCount(len(p.Labels))
		idx := make(map[string]int, len(p.Labels))
		for i, l := range p.Labels {
			idx[l] = i
		}
		rep := representation{
			Kind: KindEnum, ColumnName: name,
			EnumLabels: p.Labels, EnumIndex: idx, EnumWidth: width,
		}
		return []ColumnInfo{{Name: name, Kind: width}}, rep, nil

	case p.Kind == KindBitmask:
		if len(p.Labels) == 0 {
			return nil, representation{}, InvalidSchemaError{Reason: "bitmask requires at least one flag"}
		}
		if len(p.Labels) > maxBitmaskFlags {
			return nil, representation{}, InvalidSchemaError{Reason: fmt.Sprintf("bitmask cannot exceed %d flags", maxBitmaskFlags)}
		}
		width := bitmaskWidth(len(p.Labels))
		idx := make(map[string]int, len(p.Labels))
		for i, l := range p.Labels {
			idx[l] = i
		}
		rep := representation{
			Kind: KindBitmask, ColumnName: name,
			BitmaskFlags: p.Labels, BitmaskIndex: idx, BitmaskWidth: width,
		}
		return []ColumnInfo{{Name: name, Kind: width}}, rep, nil

	case p.Kind == KindFlatArray:
		return compileFlatArray(name, p)

	case p.Kind == KindPackedArray:
		if p.Item == nil || !p.Item.Kind.isPrimitive() {
			return nil, representation{}, InvalidSchemaError{Reason: "packed array item must be a primitive type"}
		}
		startCol := name + "_startIndex"
		lengthCol := name + "_length"
		rep := representation{
			Kind: KindPackedArray, PackedItemKind: p.Item.Kind,
			PackedStartCol: startCol, PackedLengthCol: lengthCol,
		}
		cols := []ColumnInfo{{Name: startCol, Kind: pU32}, {Name: lengthCol, Kind: pU16}}
		return cols, rep, nil

	case p.Kind == KindRPN:
		return compileRPN(name, p)

	default:
		return nil, representation{}, InvalidSchemaError{Reason: "unknown property kind"}
	}
}

func compileFlatArray(name string, p Property) ([]ColumnInfo, representation, error) {
	if p.Item == nil {
		return nil, representation{}, InvalidSchemaError{Reason: "flat array requires an item type"}
	}
	if p.Capacity <= 0 {
		return nil, representation{}, InvalidSchemaError{Reason: "flat array capacity must be positive"}
	}

	var itemWidth primitiveKind
	var itemRep *representation
	switch {
	case p.Item.Kind == KindString:
		itemWidth = pU32
	case p.Item.Kind == KindEnum:
		_, er, err := compileProperty(name+"$item", *p.Item)
		if err != nil {
			return nil, representation{}, err
		}
		itemWidth = er.EnumWidth
		itemRep = &er
	case p.Item.Kind.isPrimitive():
		itemWidth = p.Item.Kind.primitive()
	default:
		return nil, representation{}, InvalidSchemaError{Reason: "unsupported flat array item type"}
	}

	colNames := make([]string, p.Capacity)
	cols := make([]ColumnInfo, 0, p.Capacity+1)
	for i := 0; i < p.Capacity; i++ {
		colName := fmt.Sprintf("%s%d", name, i)
		colNames[i] = colName
		cols = append(cols, ColumnInfo{Name: colName, Kind: itemWidth})
	}
	lengthCol := name + "_count"
	cols = append(cols, ColumnInfo{Name: lengthCol, Kind: pU8})

	rep := representation{
		Kind: KindFlatArray, ArrayCapacity: p.Capacity, ArrayItemKind: p.Item.Kind,
		ArrayItemRep: itemRep, ArrayColumns: colNames, ArrayLengthCol: lengthCol,
	}
	return cols, rep, nil
}

func compileRPN(name string, p Property) ([]ColumnInfo, representation, error) {
	if p.Capacity <= 0 || p.StreamCapacity <= 0 {
		return nil, representation{}, InvalidSchemaError{Reason: "RPN array requires positive capacity and stream capacity"}
	}

	streamCols, streamRep, err := compileFlatArray(name+"_rpnStream", Property{
		Kind: KindFlatArray, Item: &Property{Kind: KindF32}, Capacity: p.StreamCapacity,
	})
	if err != nil {
		return nil, representation{}, err
	}
	startsCols, startsRep, err := compileFlatArray(name+"_formulaStarts", Property{
		Kind: KindFlatArray, Item: &Property{Kind: KindI16}, Capacity: p.Capacity,
	})
	if err != nil {
		return nil, representation{}, err
	}
	lengthsCols, lengthsRep, err := compileFlatArray(name+"_formulaLengths", Property{
		Kind: KindFlatArray, Item: &Property{Kind: KindU8}, Capacity: p.Capacity,
	})
	if err != nil {
		return nil, representation{}, err
	}

	cols := make([]ColumnInfo, 0, len(streamCols)+len(startsCols)+len(lengthsCols))
	cols = append(cols, streamCols...)
	cols = append(cols, startsCols...)
	cols = append(cols, lengthsCols...)

	rep := representation{
		Kind: KindRPN, RPNFormulaCapacity: p.Capacity, RPNStreamCapacity: p.StreamCapacity, RPNParser: p.Parser,
		RPNStreamRep: &streamRep, RPNStartsRep: &startsRep, RPNLengthsRep: &lengthsRep,
	}
	return cols, rep, nil
}
