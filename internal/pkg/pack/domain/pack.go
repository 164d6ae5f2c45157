package domain

// PackType is stored as an integer, the values match the legacy table.
type PackType int

const (
	PackTypeUnknown  PackType = 0
	PackTypeStatic   PackType = 10
	PackTypeAnimated PackType = 20
	PackTypeVideo    PackType = 30
)

var packTypeDescriptions = map[PackType]string{
	PackTypeStatic:   "static",
	PackTypeAnimated: "animated",
	PackTypeVideo:    "video",
}

// maximum number of stickers a set of the given type can hold
var maxPackSize = map[PackType]int{
	PackTypeStatic:   120,
	PackTypeAnimated: 50,
	PackTypeVideo:    120,
}

func (t PackType) String() string {
	if d, ok := packTypeDescriptions[t]; ok {
		return d
	}
	return "unknown"
}

func (t PackType) Valid() bool {
	_, ok := packTypeDescriptions[t]
	return ok
}

// MaxSize returns the capacity of a pack of this type, 0 for unknown types.
func (t PackType) MaxSize() int {
	return maxPackSize[t]
}

// PackTypes lists the selectable types in display order.
func PackTypes() []PackType {
	return []PackType{PackTypeStatic, PackTypeAnimated, PackTypeVideo}
}

type Pack struct {
	ID         int64
	UserID     int64
	Title      string
	Name       string
	Type       *PackType
	IsAnimated bool
}

// EffectiveType reconciles legacy rows: a stored type wins, otherwise the
// is_animated flag decides between animated and static. Video can't be inferred.
func (p *Pack) EffectiveType() PackType {
	if p.Type != nil && p.Type.Valid() {
		return *p.Type
	}
	if p.IsAnimated {
		return PackTypeAnimated
	}
	return PackTypeStatic
}

// SetType stores t and keeps the legacy flag in sync for older readers.
func (p *Pack) SetType(t PackType) {
	p.Type = &t
	p.IsAnimated = t == PackTypeAnimated
}
