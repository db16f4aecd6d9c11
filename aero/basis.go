package aero

import "github.com/go-gl/mathgl/mgl32"

const parallelEps = 1e-6

// WindBasis returns the rotation taking world vectors into wind space, where
// Z follows windDir and Y is the part of up orthogonal to it. When windDir is
// parallel to up (or up is zero) an alternate up axis is used and fallback is
// true. A zero windDir yields the identity with fallback set.
func WindBasis(windDir, up mgl32.Vec3) (basis mgl32.Mat3, fallback bool) {
	if windDir.Len() < parallelEps {
		return mgl32.Ident3(), true
	}
	forward := windDir.Normalize()

	right := up.Cross(forward)
	if right.Len() < parallelEps {
		fallback = true
		alt := mgl32.Vec3{0, 1, 0}
		if abs32(forward[1]) > 0.9 {
			alt = mgl32.Vec3{0, 0, 1}
		}
		right = alt.Cross(forward)
	}
	right = right.Normalize()
	upOrtho := forward.Cross(right)

	return mgl32.Mat3FromRows(right, upOrtho, forward), fallback
}

// WindTransform composes the wind basis with an object's model matrix. It
// returns the object-to-wind transform and the matching normal transform.
func WindTransform(windDir, up mgl32.Vec3, model mgl32.Mat4) (transform mgl32.Mat4, normal mgl32.Mat3, fallback bool) {
	basis, fallback := WindBasis(windDir, up)
	transform = basis.Mat4().Mul4(model)
	normal = transform.Mat3().Inv().Transpose()
	return transform, normal, fallback
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
