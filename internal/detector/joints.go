// Package detector provides hand detection interfaces and the joint vocabulary
// shared by the classification pipeline.
package detector

import "fmt"

// JointType identifies a joint's anatomical role.
type JointType int

const (
	Tip JointType = iota
	DIP
	PIP
	MCP
	IP
	MP
	CMC
	WristJoint
	numJointTypes
)

// NumJointTypes is the number of distinct joint types.
const NumJointTypes = int(numJointTypes)

var jointTypeNames = [...]string{"tip", "dip", "pip", "mcp", "ip", "mp", "cmc", "wrist"}

func (j JointType) String() string {
	if j < 0 || j >= numJointTypes {
		return fmt.Sprintf("JointType(%d)", int(j))
	}
	return jointTypeNames[j]
}

// ParseJointType returns the JointType for a lowercase name such as "tip".
func ParseJointType(s string) (JointType, error) {
	for i, name := range jointTypeNames {
		if name == s {
			return JointType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown joint type %q", s)
}

// MarshalText implements encoding.TextMarshaler so JointType works as a JSON map key.
func (j JointType) MarshalText() ([]byte, error) {
	if j < 0 || j >= numJointTypes {
		return nil, fmt.Errorf("invalid joint type %d", int(j))
	}
	return []byte(j.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (j *JointType) UnmarshalText(b []byte) error {
	v, err := ParseJointType(string(b))
	if err != nil {
		return err
	}
	*j = v
	return nil
}

// FingerType identifies the finger a joint belongs to. Wrist is a sentinel
// finger used only by the single wrist joint.
type FingerType int

const (
	Thumb FingerType = iota
	Index
	Middle
	Ring
	Little
	WristFinger
)

var fingerTypeNames = [...]string{"thumb", "index", "middle", "ring", "little", "wrist"}

func (f FingerType) String() string {
	if f < 0 || int(f) >= len(fingerTypeNames) {
		return fmt.Sprintf("FingerType(%d)", int(f))
	}
	return fingerTypeNames[f]
}

// MarshalText implements encoding.TextMarshaler.
func (f FingerType) MarshalText() ([]byte, error) {
	if f < 0 || int(f) >= len(fingerTypeNames) {
		return nil, fmt.Errorf("invalid finger type %d", int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *FingerType) UnmarshalText(b []byte) error {
	for i, name := range fingerTypeNames {
		if name == string(b) {
			*f = FingerType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown finger type %q", string(b))
}

// Fingers lists the real fingers in anatomical order, without the wrist sentinel.
var Fingers = []FingerType{Thumb, Index, Middle, Ring, Little}

// JointName is one of the 21 canonical joint identifiers of a hand.
type JointName int

// Canonical joint identifiers. The declaration order is the order in which
// ingest walks a hand: thumb, index, middle, ring, little (each tip first),
// then the wrist.
const (
	ThumbTip JointName = iota
	ThumbIP
	ThumbMP
	ThumbCMC
	IndexTip
	IndexDIP
	IndexPIP
	IndexMCP
	MiddleTip
	MiddleDIP
	MiddlePIP
	MiddleMCP
	RingTip
	RingDIP
	RingPIP
	RingMCP
	LittleTip
	LittleDIP
	LittlePIP
	LittleMCP
	Wrist
	NumJoints = 21
)

type jointInfo struct {
	name   string
	joint  JointType
	finger FingerType
}

var joints = [NumJoints]jointInfo{
	ThumbTip:  {"thumbTip", Tip, Thumb},
	ThumbIP:   {"thumbIP", IP, Thumb},
	ThumbMP:   {"thumbMP", MP, Thumb},
	ThumbCMC:  {"thumbCMC", CMC, Thumb},
	IndexTip:  {"indexTip", Tip, Index},
	IndexDIP:  {"indexDIP", DIP, Index},
	IndexPIP:  {"indexPIP", PIP, Index},
	IndexMCP:  {"indexMCP", MCP, Index},
	MiddleTip: {"middleTip", Tip, Middle},
	MiddleDIP: {"middleDIP", DIP, Middle},
	MiddlePIP: {"middlePIP", PIP, Middle},
	MiddleMCP: {"middleMCP", MCP, Middle},
	RingTip:   {"ringTip", Tip, Ring},
	RingDIP:   {"ringDIP", DIP, Ring},
	RingPIP:   {"ringPIP", PIP, Ring},
	RingMCP:   {"ringMCP", MCP, Ring},
	LittleTip: {"littleTip", Tip, Little},
	LittleDIP: {"littleDIP", DIP, Little},
	LittlePIP: {"littlePIP", PIP, Little},
	LittleMCP: {"littleMCP", MCP, Little},
	Wrist:     {"wrist", WristJoint, WristFinger},
}

// Valid reports whether n is one of the canonical identifiers.
func (n JointName) Valid() bool { return n >= 0 && n < NumJoints }

// Joint returns the anatomical role of the identifier.
func (n JointName) Joint() JointType { return joints[n].joint }

// Finger returns the finger the identifier belongs to.
func (n JointName) Finger() FingerType { return joints[n].finger }

func (n JointName) String() string {
	if !n.Valid() {
		return fmt.Sprintf("JointName(%d)", int(n))
	}
	return joints[n].name
}

// MarshalText implements encoding.TextMarshaler so HandJoints encodes as a JSON object.
func (n JointName) MarshalText() ([]byte, error) {
	if !n.Valid() {
		return nil, fmt.Errorf("invalid joint name %d", int(n))
	}
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *JointName) UnmarshalText(b []byte) error {
	for i := range joints {
		if joints[i].name == string(b) {
			*n = JointName(i)
			return nil
		}
	}
	return fmt.Errorf("unknown joint %q", string(b))
}

// CanonicalJoints returns all 21 identifiers in canonical order.
func CanonicalJoints() []JointName {
	out := make([]JointName, NumJoints)
	for i := range out {
		out[i] = JointName(i)
	}
	return out
}

// Point is a 2D location.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RawJoint is a single detector output for one joint. Location is in the
// detector's normalized space: [0,1]x[0,1] with the origin at the bottom-left.
type RawJoint struct {
	Location   Point   `json:"location"`
	Confidence float64 `json:"confidence"`
}

// HandJoints maps joint identifiers to raw detections for one hand.
// Identifiers missing from the map were not detected.
type HandJoints map[JointName]RawJoint
