package geometry

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Shapes are built in object space with span along X, up along Y and chord
// along Z, leading edge toward -Z.

// Plate returns a flat rectangular plate centred on the origin.
func Plate(span, thickness, chord float64) (sdf.SDF3, error) {
	s, err := sdf.Box3D(v3.Vec{X: span, Y: thickness, Z: chord}, 0)
	if err != nil {
		return nil, fmt.Errorf("plate: %w", err)
	}
	return s, nil
}

// Sphere returns a sphere centred on the origin.
func Sphere(radius float64) (sdf.SDF3, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sphere: %w", err)
	}
	return s, nil
}

// Cylinder returns a cylinder whose axis runs along the span.
func Cylinder(radius, length float64) (sdf.SDF3, error) {
	s, err := sdf.Cylinder3D(length, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("cylinder: %w", err)
	}
	return sdf.Transform3D(s, sdf.RotateY(math.Pi/2)), nil
}

// WingSpec describes a rectangular wing with an optional trailing-edge flap.
type WingSpec struct {
	Span      float64
	Chord     float64 // Total chord including the flap
	Thickness float64
	FlapChord float64 // 0 = no flap
	FlapAngle float64 // Radians, trailing edge down positive
}

// WingParts returns the main element, positioned in object space, and the
// undeflected flap with its leading edge on the origin. hingeZ is where the
// flap leading edge attaches. flap is nil when the wing has none.
func WingParts(w WingSpec) (main, flap sdf.SDF3, hingeZ float64, err error) {
	if w.FlapChord < 0 || w.FlapChord >= w.Chord {
		return nil, nil, 0, fmt.Errorf("wing: flap chord %v outside [0, %v)", w.FlapChord, w.Chord)
	}
	round := w.Thickness * 0.45
	mainChord := w.Chord - w.FlapChord

	main, err = sdf.Box3D(v3.Vec{X: w.Span, Y: w.Thickness, Z: mainChord}, round)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("wing main element: %w", err)
	}
	// Main element spans z in [-chord/2, -chord/2 + mainChord]
	hingeZ = -w.Chord/2 + mainChord
	main = sdf.Transform3D(main, sdf.Translate3d(v3.Vec{Z: hingeZ - mainChord/2}))
	if w.FlapChord == 0 {
		return main, nil, hingeZ, nil
	}

	flap, err = sdf.Box3D(v3.Vec{X: w.Span, Y: w.Thickness * 0.8, Z: w.FlapChord}, round*0.8)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("wing flap: %w", err)
	}
	flap = sdf.Transform3D(flap, sdf.Translate3d(v3.Vec{Z: w.FlapChord / 2}))
	return main, flap, hingeZ, nil
}

// HingeMatrix places a part built at the origin onto a hinge line at
// (0, 0, hingeZ), rotated about the span axis by angle radians (trailing
// edge down positive).
func HingeMatrix(hingeZ, angle float64) sdf.M44 {
	return sdf.Translate3d(v3.Vec{Z: hingeZ}).Mul(sdf.RotateX(angle))
}

// Wing returns a rounded slab wing with its flap deflected by FlapAngle.
func Wing(w WingSpec) (sdf.SDF3, error) {
	main, flap, hingeZ, err := WingParts(w)
	if err != nil {
		return nil, err
	}
	if flap == nil {
		return main, nil
	}
	return sdf.Union3D(main, sdf.Transform3D(flap, HingeMatrix(hingeZ, w.FlapAngle))), nil
}
