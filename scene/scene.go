// Package scene is the explicit scene registry shared by the update step and
// the renderer. Nothing here is global: callers pass the registry around.
package scene

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type EntityID int

// Rotatable spins an entity about +Y. Speed is in turns per second.
type Rotatable struct {
	Speed float32
	Angle float32 // radians, in [0, 2π)
}

// Update sets the angle for the given simulated time.
func (r *Rotatable) Update(elapsed float64) {
	angle := math.Mod(elapsed*2*math.Pi*float64(r.Speed), 2*math.Pi)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	r.Angle = float32(angle)
}

type Material struct {
	BaseColor color.RGBA
	Textured  bool
	Unlit     bool
}

type Entity struct {
	ID       EntityID
	Name     string
	Position mgl32.Vec3
	Scale    mgl32.Vec3
	Material Material

	Rotatable *Rotatable
}

// Transform is the model matrix of the entity.
func (e *Entity) Transform() mgl32.Mat4 {
	m := mgl32.Translate3D(e.Position.X(), e.Position.Y(), e.Position.Z())
	if e.Rotatable != nil {
		m = m.Mul4(mgl32.HomogRotate3DY(e.Rotatable.Angle))
	}
	scale := e.Scale
	if scale == (mgl32.Vec3{}) {
		scale = mgl32.Vec3{1, 1, 1}
	}
	return m.Mul4(mgl32.Scale3D(scale.X(), scale.Y(), scale.Z()))
}

type Camera struct {
	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Up     mgl32.Vec3

	FovY float32 // radians
	Near float32
	Far  float32
}

func (c Camera) View() mgl32.Mat4 {
	up := c.Up
	if up == (mgl32.Vec3{}) {
		up = mgl32.Vec3{0, 1, 0}
	}
	return mgl32.LookAtV(c.Eye, c.Target, up)
}

func (c Camera) Projection(aspect float32) mgl32.Mat4 {
	fov := c.FovY
	if fov == 0 {
		fov = math.Pi / 4
	}
	near, far := c.Near, c.Far
	if near <= 0 {
		near = 0.1
	}
	if far <= near {
		far = 1000
	}
	return mgl32.Perspective(fov, aspect, near, far)
}

// Registry owns every entity of a scene.
type Registry struct {
	Camera Camera
	Clear  color.RGBA

	// Tick and Elapsed describe the simulated time of the last Update.
	Tick    uint64
	Elapsed float64

	entities []*Entity
	nextID   EntityID
}

func New() *Registry {
	return &Registry{
		Camera: Camera{
			Eye:  mgl32.Vec3{0, 0, 3},
			Up:   mgl32.Vec3{0, 1, 0},
			FovY: math.Pi / 4,
			Near: 0.1,
			Far:  1000,
		},
		Clear: color.RGBA{43, 43, 43, 255},
	}
}

// Spawn adds e to the registry and returns its id.
func (r *Registry) Spawn(e Entity) EntityID {
	e.ID = r.nextID
	r.nextID++
	r.entities = append(r.entities, &e)
	return e.ID
}

func (r *Registry) Entity(id EntityID) (*Entity, bool) {
	for _, e := range r.entities {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

func (r *Registry) Each(fn func(e *Entity)) {
	for _, e := range r.entities {
		fn(e)
	}
}

func (r *Registry) Len() int { return len(r.entities) }

// Update advances every rotatable entity to the given simulated time.
func (r *Registry) Update(tick uint64, elapsed float64) {
	r.Tick = tick
	r.Elapsed = elapsed
	for _, e := range r.entities {
		if e.Rotatable != nil {
			e.Rotatable.Update(elapsed)
		}
	}
}
