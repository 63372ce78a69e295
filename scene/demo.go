package scene

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
)

// NewSpinningCube builds the demo scene: one textured, unlit unit cube at the
// origin spinning at speed turns per second, seen from slightly above.
func NewSpinningCube(speed float32) (*Registry, EntityID) {
	r := New()
	r.Camera.Eye = mgl32.Vec3{0, 1, 2}
	r.Camera.Target = mgl32.Vec3{0, 0, 0}

	id := r.Spawn(Entity{
		Name:  "cube",
		Scale: mgl32.Vec3{1, 1, 1},
		Material: Material{
			BaseColor: color.RGBA{255, 255, 255, 255},
			Textured:  true,
			Unlit:     true,
		},
		Rotatable: &Rotatable{Speed: speed},
	})
	return r, id
}
