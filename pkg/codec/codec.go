package codec

import (
	"io"
	"reflect"
	"sort"

	"github.com/weftlab/weft/internal/wire"
	"github.com/weftlab/weft/pkg/errors"
	"github.com/weftlab/weft/pkg/graph"
	"github.com/weftlab/weft/pkg/metadata"
	"github.com/weftlab/weft/pkg/ref"
)

// Version is the snapshot schema version. Bumped on any wire layout change;
// decode refuses other versions instead of guessing.
const Version uint16 = 1

// magic marks the start of every snapshot.
var magic = [4]byte{'W', 'E', 'F', 'T'}

// Declared field counts per record kind. Written before each record and
// verified on decode, so schema skew fails before payload bytes can be
// misinterpreted.
const (
	graphArity  = 2
	partArity   = 7
	importArity = 8
	exportArity = 4
)

// Import flag bits.
const (
	flagParameterSite  = 1 << 0
	flagForceNonShared = 1 << 1
	flagFactory        = 1 << 2
	cardinalityShift   = 3
	cardinalityMask    = 0x3 << cardinalityShift
	flagKnownMask      = flagParameterSite | flagForceNonShared | flagFactory | cardinalityMask
)

// Reusable-object table markers.
const (
	handleNil = 0x00
	handleNew = 0x01
	handleRef = 0x02
)

// Codec marshals and unmarshals composition graphs. The zero Codec uses the
// default metadata depth limit.
type Codec struct {
	// Metadata configures encoding limits for metadata values.
	Metadata metadata.Codec
}

// Marshal encodes a graph with the default codec configuration.
func Marshal(g *graph.Graph) ([]byte, error) {
	var c Codec
	return c.Marshal(g)
}

// Unmarshal decodes a snapshot with the default codec configuration.
func Unmarshal(data []byte) (*graph.Graph, error) {
	var c Codec
	return c.Unmarshal(data)
}

// Marshal encodes a graph into snapshot bytes.
func (c *Codec) Marshal(g *graph.Graph) ([]byte, error) {
	if g == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cannot marshal nil graph")
	}
	e := &encoder{
		w:         wire.NewWriter(),
		meta:      &c.Metadata,
		exportIDs: make(map[*graph.Export]uint64),
		mapIDs:    make(map[uintptr]uint64),
	}
	e.w.Append(magic[:])
	e.w.U16(Version)
	if err := e.encodeGraph(g); err != nil {
		return nil, err
	}
	return e.w.Bytes(), nil
}

// MarshalTo encodes a graph and writes the snapshot to w.
func (c *Codec) MarshalTo(w io.Writer, g *graph.Graph) error {
	data, err := c.Marshal(g)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Unmarshal decodes snapshot bytes into a graph. Any failure discards all
// partially-decoded state and surfaces the error.
func (c *Codec) Unmarshal(data []byte) (*graph.Graph, error) {
	d := &decoder{
		r:       wire.NewReader(data),
		meta:    &c.Metadata,
		exports: make(map[uint64]*graph.Export),
		maps:    make(map[uint64]map[string]metadata.Value),
	}

	var m [4]byte
	for i := range m {
		b, err := d.r.Byte()
		if err != nil {
			return nil, err
		}
		m[i] = b
	}
	if m != magic {
		return nil, errors.New(errors.ErrCodeSchemaMismatch, "bad snapshot magic %q", m[:])
	}
	v, err := d.r.U16()
	if err != nil {
		return nil, err
	}
	if v != Version {
		return nil, errors.New(errors.ErrCodeSchemaMismatch,
			"snapshot schema version %d, this build reads %d", v, Version)
	}

	g, err := d.decodeGraph()
	if err != nil {
		return nil, err
	}
	if d.r.Remaining() != 0 {
		return nil, errors.New(errors.ErrCodeSchemaMismatch,
			"%d trailing bytes after graph record", d.r.Remaining())
	}
	return g, nil
}

// UnmarshalFrom reads one snapshot from r and decodes it.
func (c *Codec) UnmarshalFrom(r io.Reader) (*graph.Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read snapshot")
	}
	return c.Unmarshal(data)
}

// =============================================================================
// Encoder
// =============================================================================

type encoder struct {
	w         *wire.Writer
	meta      *metadata.Codec
	exportIDs map[*graph.Export]uint64
	mapIDs    map[uintptr]uint64
	nextID    uint64
}

func (e *encoder) encodeGraph(g *graph.Graph) error {
	e.w.Byte(graphArity)

	parts := g.Parts()
	e.w.Uvarint(uint64(len(parts)))
	for _, p := range parts {
		if err := e.encodePart(p); err != nil {
			return err
		}
	}

	providers := g.ViewProviders()
	views := make([]ref.TypeRef, 0, len(providers))
	for view := range providers {
		views = append(views, view)
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].Module != views[j].Module {
			return views[i].Module < views[j].Module
		}
		return views[i].Name < views[j].Name
	})

	e.w.Uvarint(uint64(len(views)))
	for _, view := range views {
		writeTypeRef(e.w, view)
		if err := e.encodeExport(providers[view]); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) encodePart(p *graph.Part) error {
	e.w.Byte(partArity)

	writeTypeRef(e.w, p.Type)

	e.w.Bool(p.Instantiable())
	if p.Instantiable() {
		writeMethodRef(e.w, p.Activator)
	}

	e.w.Uvarint(uint64(len(p.ActivatorImports)))
	for _, im := range p.ActivatorImports {
		if err := e.encodeImport(im); err != nil {
			return err
		}
	}
	e.w.Uvarint(uint64(len(p.MemberImports)))
	for _, im := range p.MemberImports {
		if err := e.encodeImport(im); err != nil {
			return err
		}
	}

	e.w.Uvarint(uint64(len(p.Exports)))
	for _, ex := range p.Exports {
		if err := e.encodeExport(ex); err != nil {
			return err
		}
	}

	e.w.Uvarint(uint64(len(p.OnActivated)))
	for _, cb := range p.OnActivated {
		writeMemberRef(e.w, cb)
	}

	e.w.Bool(p.Shared())
	if p.Shared() {
		e.w.String(p.SharingBoundary)
	}
	return nil
}

func (e *encoder) encodeImport(im *graph.Import) error {
	e.w.Byte(importArity)

	var flags byte
	if im.IsParameter() {
		flags |= flagParameterSite
	}
	if im.ForceNonShared {
		flags |= flagForceNonShared
	}
	if im.Factory {
		flags |= flagFactory
	}
	flags |= byte(im.Cardinality) << cardinalityShift
	e.w.Byte(flags)

	if im.IsParameter() {
		writeParameterRef(e.w, im.Parameter)
	} else {
		writeMemberRef(e.w, im.Member)
	}
	writeTypeRef(e.w, im.Containing)
	writeTypeRef(e.w, im.SiteType)
	writeTypeRef(e.w, im.ElementType)

	e.w.Uvarint(uint64(len(im.Satisfying)))
	for _, ex := range im.Satisfying {
		if err := e.encodeExport(ex); err != nil {
			return err
		}
	}

	e.w.Uvarint(uint64(len(im.FactoryBoundaries)))
	for _, b := range im.FactoryBoundaries {
		e.w.String(b)
	}

	return e.encodeMetadataMap(im.Requirements)
}

// encodeExport writes an export through the reusable-object table: full
// payload on first occurrence, bare id afterwards. This is what keeps shared
// exports reference-identical after decode and bounds the snapshot size.
func (e *encoder) encodeExport(ex *graph.Export) error {
	if ex == nil {
		e.w.Byte(handleNil)
		return nil
	}
	if id, seen := e.exportIDs[ex]; seen {
		e.w.Byte(handleRef)
		e.w.Uvarint(id)
		return nil
	}

	id := e.nextID
	e.nextID++
	e.exportIDs[ex] = id

	e.w.Byte(handleNew)
	e.w.Uvarint(id)

	e.w.Byte(exportArity)
	e.w.String(ex.Contract)
	writeTypeRef(e.w, ex.Declaring)
	e.w.Bool(ex.FromMember())
	if ex.FromMember() {
		writeMemberRef(e.w, ex.Member)
	}
	return e.encodeMetadataMap(ex.Metadata)
}

// encodeMetadataMap writes a metadata map through the same identity table.
// The metadata codec rewrites resolved values to substitution form itself.
func (e *encoder) encodeMetadataMap(m map[string]metadata.Value) error {
	if m == nil {
		e.w.Byte(handleNil)
		return nil
	}
	ptr := reflect.ValueOf(m).Pointer()
	if id, seen := e.mapIDs[ptr]; seen {
		e.w.Byte(handleRef)
		e.w.Uvarint(id)
		return nil
	}

	id := e.nextID
	e.nextID++
	e.mapIDs[ptr] = id

	e.w.Byte(handleNew)
	e.w.Uvarint(id)
	return e.meta.EncodeMap(e.w, m)
}

// =============================================================================
// Decoder
// =============================================================================

type decoder struct {
	r       *wire.Reader
	meta    *metadata.Codec
	exports map[uint64]*graph.Export
	maps    map[uint64]map[string]metadata.Value
}

func (d *decoder) expectArity(want int, record string) error {
	got, err := d.r.Byte()
	if err != nil {
		return err
	}
	if int(got) != want {
		return errors.New(errors.ErrCodeSchemaMismatch,
			"%s record arity %d, want %d", record, got, want)
	}
	return nil
}

// capHint clamps a count read from the wire to a safe preallocation size.
// Counts are untrusted: a hostile varint must not turn into a negative or
// enormous capacity.
func capHint(count uint64, limit int) int {
	if count < uint64(limit) {
		return int(count)
	}
	return limit
}

func (d *decoder) decodeGraph() (*graph.Graph, error) {
	if err := d.expectArity(graphArity, "graph"); err != nil {
		return nil, err
	}

	count, err := d.r.Uvarint()
	if err != nil {
		return nil, err
	}
	parts := make([]*graph.Part, 0, capHint(count, 256))
	for i := uint64(0); i < count; i++ {
		p, err := d.decodePart()
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}

	count, err = d.r.Uvarint()
	if err != nil {
		return nil, err
	}
	providers := make(map[ref.TypeRef]*graph.Export, capHint(count, 256))
	for i := uint64(0); i < count; i++ {
		view, err := readTypeRef(d.r)
		if err != nil {
			return nil, err
		}
		adapter, err := d.decodeExport()
		if err != nil {
			return nil, err
		}
		if adapter == nil {
			return nil, errors.New(errors.ErrCodeSchemaMismatch,
				"view provider %s has nil adapter export", view)
		}
		providers[view] = adapter
	}

	// Rebuilding goes through the validating constructor: a snapshot of an
	// empty or malformed graph fails here instead of producing one.
	return graph.New(parts, providers)
}

func (d *decoder) decodePart() (*graph.Part, error) {
	if err := d.expectArity(partArity, "part"); err != nil {
		return nil, err
	}
	p := &graph.Part{}

	var err error
	if p.Type, err = readTypeRef(d.r); err != nil {
		return nil, err
	}

	present, err := d.r.Bool()
	if err != nil {
		return nil, err
	}
	if present {
		if p.Activator, err = readMethodRef(d.r); err != nil {
			return nil, err
		}
	}

	if p.ActivatorImports, err = d.decodeImports(); err != nil {
		return nil, err
	}
	if p.MemberImports, err = d.decodeImports(); err != nil {
		return nil, err
	}

	count, err := d.r.Uvarint()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < count; i++ {
		ex, err := d.decodeExport()
		if err != nil {
			return nil, err
		}
		if ex == nil {
			return nil, errors.New(errors.ErrCodeSchemaMismatch,
				"nil export in export list of part %s", p.Type)
		}
		p.Exports = append(p.Exports, ex)
	}

	count, err = d.r.Uvarint()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < count; i++ {
		cb, err := readMemberRef(d.r)
		if err != nil {
			return nil, err
		}
		p.OnActivated = append(p.OnActivated, cb)
	}

	present, err = d.r.Bool()
	if err != nil {
		return nil, err
	}
	if present {
		if p.SharingBoundary, err = d.r.String(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (d *decoder) decodeImports() ([]*graph.Import, error) {
	count, err := d.r.Uvarint()
	if err != nil {
		return nil, err
	}
	var out []*graph.Import
	for i := uint64(0); i < count; i++ {
		im, err := d.decodeImport()
		if err != nil {
			return nil, err
		}
		out = append(out, im)
	}
	return out, nil
}

func (d *decoder) decodeImport() (*graph.Import, error) {
	if err := d.expectArity(importArity, "import"); err != nil {
		return nil, err
	}

	flags, err := d.r.Byte()
	if err != nil {
		return nil, err
	}
	if flags&^byte(flagKnownMask) != 0 {
		return nil, errors.New(errors.ErrCodeSchemaMismatch,
			"import flags 0x%02x carry unknown bits", flags)
	}
	card := graph.Cardinality(flags & cardinalityMask >> cardinalityShift)
	if card > graph.ZeroOrMany {
		return nil, errors.New(errors.ErrCodeSchemaMismatch,
			"invalid cardinality %d in import flags", card)
	}

	im := &graph.Import{
		Cardinality:    card,
		ForceNonShared: flags&flagForceNonShared != 0,
		Factory:        flags&flagFactory != 0,
	}

	if flags&flagParameterSite != 0 {
		if im.Parameter, err = readParameterRef(d.r); err != nil {
			return nil, err
		}
	} else {
		if im.Member, err = readMemberRef(d.r); err != nil {
			return nil, err
		}
	}
	if im.Containing, err = readTypeRef(d.r); err != nil {
		return nil, err
	}
	if im.SiteType, err = readTypeRef(d.r); err != nil {
		return nil, err
	}
	if im.ElementType, err = readTypeRef(d.r); err != nil {
		return nil, err
	}

	count, err := d.r.Uvarint()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < count; i++ {
		ex, err := d.decodeExport()
		if err != nil {
			return nil, err
		}
		if ex == nil {
			return nil, errors.New(errors.ErrCodeSchemaMismatch,
				"nil export in satisfaction list of %s", im.Site())
		}
		im.Satisfying = append(im.Satisfying, ex)
	}

	count, err = d.r.Uvarint()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < count; i++ {
		b, err := d.r.String()
		if err != nil {
			return nil, err
		}
		im.FactoryBoundaries = append(im.FactoryBoundaries, b)
	}

	if im.Requirements, err = d.decodeMetadataMap(); err != nil {
		return nil, err
	}
	return im, nil
}

// decodeExport resolves a reusable-object handle: a backreference yields the
// already-constructed instance without re-decoding or recursing.
func (d *decoder) decodeExport() (*graph.Export, error) {
	marker, err := d.r.Byte()
	if err != nil {
		return nil, err
	}
	switch marker {
	case handleNil:
		return nil, nil
	case handleRef:
		id, err := d.r.Uvarint()
		if err != nil {
			return nil, err
		}
		ex, ok := d.exports[id]
		if !ok {
			return nil, errors.New(errors.ErrCodeSchemaMismatch,
				"backreference to unknown export id %d", id)
		}
		return ex, nil
	case handleNew:
	default:
		return nil, errors.New(errors.ErrCodeSchemaMismatch,
			"invalid object-table marker 0x%02x", marker)
	}

	id, err := d.r.Uvarint()
	if err != nil {
		return nil, err
	}
	if _, dup := d.exports[id]; dup {
		return nil, errors.New(errors.ErrCodeSchemaMismatch, "export id %d assigned twice", id)
	}

	// Register before decoding the payload so any backreference reachable
	// from it resolves to this same instance.
	ex := &graph.Export{}
	d.exports[id] = ex

	if err := d.expectArity(exportArity, "export"); err != nil {
		return nil, err
	}
	if ex.Contract, err = d.r.String(); err != nil {
		return nil, err
	}
	if ex.Declaring, err = readTypeRef(d.r); err != nil {
		return nil, err
	}
	present, err := d.r.Bool()
	if err != nil {
		return nil, err
	}
	if present {
		if ex.Member, err = readMemberRef(d.r); err != nil {
			return nil, err
		}
	}
	if ex.Metadata, err = d.decodeMetadataMap(); err != nil {
		return nil, err
	}
	return ex, nil
}

func (d *decoder) decodeMetadataMap() (map[string]metadata.Value, error) {
	marker, err := d.r.Byte()
	if err != nil {
		return nil, err
	}
	switch marker {
	case handleNil:
		return nil, nil
	case handleRef:
		id, err := d.r.Uvarint()
		if err != nil {
			return nil, err
		}
		m, ok := d.maps[id]
		if !ok {
			return nil, errors.New(errors.ErrCodeSchemaMismatch,
				"backreference to unknown metadata map id %d", id)
		}
		return m, nil
	case handleNew:
	default:
		return nil, errors.New(errors.ErrCodeSchemaMismatch,
			"invalid object-table marker 0x%02x", marker)
	}

	id, err := d.r.Uvarint()
	if err != nil {
		return nil, err
	}
	if _, dup := d.maps[id]; dup {
		return nil, errors.New(errors.ErrCodeSchemaMismatch, "metadata map id %d assigned twice", id)
	}
	m, err := d.meta.DecodeMap(d.r)
	if err != nil {
		return nil, err
	}
	d.maps[id] = m
	return m, nil
}
