// Package orientation composes camera rotation matrices from angle deltas.
//
// Matrices are written row by row in the host convention:
//
//	yaw   (Y axis)  [ c 0 -s ; 0 1 0 ; s 0 c ]
//	pitch (X axis)  [ 1 0 0 ; 0 c s ; 0 -s c ]
//	roll  (Z axis)  [ c -s 0 ; s c 0 ; 0 0 1 ]
//
// and composed by right multiplication, so the last factor is applied in the
// camera's own frame.
package orientation

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Identity is the orientation of a camera looking down +Z with +Y up.
func Identity() mgl64.Mat3 {
	return mgl64.Ident3()
}

// fromRows builds a matrix from its rows. mgl64 stores matrices column-major.
func fromRows(r0, r1, r2 mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3{
		r0[0], r1[0], r2[0],
		r0[1], r1[1], r2[1],
		r0[2], r1[2], r2[2],
	}
}

// Yaw returns the rotation about the Y axis by deg degrees.
func Yaw(deg float64) mgl64.Mat3 {
	s, c := math.Sincos(mgl64.DegToRad(deg))
	return fromRows(
		mgl64.Vec3{c, 0, -s},
		mgl64.Vec3{0, 1, 0},
		mgl64.Vec3{s, 0, c},
	)
}

// Pitch returns the rotation about the X axis by deg degrees.
func Pitch(deg float64) mgl64.Mat3 {
	s, c := math.Sincos(mgl64.DegToRad(deg))
	return fromRows(
		mgl64.Vec3{1, 0, 0},
		mgl64.Vec3{0, c, s},
		mgl64.Vec3{0, -s, c},
	)
}

// Roll returns the rotation about the Z axis by deg degrees.
func Roll(deg float64) mgl64.Mat3 {
	s, c := math.Sincos(mgl64.DegToRad(deg))
	return fromRows(
		mgl64.Vec3{c, -s, 0},
		mgl64.Vec3{s, c, 0},
		mgl64.Vec3{0, 0, 1},
	)
}

// Compose returns existing · Yaw(yaw) · Pitch(pitch) · Roll(roll).
// The order is fixed; swapping factors changes the pose.
func Compose(existing mgl64.Mat3, yawDeg, pitchDeg, rollDeg float64) mgl64.Mat3 {
	return existing.Mul3(Yaw(yawDeg)).Mul3(Pitch(pitchDeg)).Mul3(Roll(rollDeg))
}

// FromAngles composes a fresh orientation from the identity.
func FromAngles(yawDeg, pitchDeg, rollDeg float64) mgl64.Mat3 {
	return Compose(Identity(), yawDeg, pitchDeg, rollDeg)
}

// IncrementalYaw levels the frame by undoing pitchDeg, yaws by deltaDeg and
// re-applies the pitch. Yawing a pitched frame directly couples the axes.
func IncrementalYaw(existing mgl64.Mat3, deltaDeg, pitchDeg float64) mgl64.Mat3 {
	return existing.Mul3(Pitch(-pitchDeg)).Mul3(Yaw(deltaDeg)).Mul3(Pitch(pitchDeg))
}

// IncrementalPitch pitches the frame by deltaDeg.
func IncrementalPitch(existing mgl64.Mat3, deltaDeg float64) mgl64.Mat3 {
	return existing.Mul3(Pitch(deltaDeg))
}

// IncrementalRoll rolls the frame by deltaDeg.
func IncrementalRoll(existing mgl64.Mat3, deltaDeg float64) mgl64.Mat3 {
	return existing.Mul3(Roll(deltaDeg))
}

// Forward is the normalized camera direction m · (0,0,1).
func Forward(m mgl64.Mat3) mgl64.Vec3 {
	return m.Mul3x1(mgl64.Vec3{0, 0, 1}).Normalize()
}

// Up is the normalized camera up vector m · (0,1,0).
func Up(m mgl64.Mat3) mgl64.Vec3 {
	return m.Mul3x1(mgl64.Vec3{0, 1, 0}).Normalize()
}

// Right is the normalized camera right vector m · (1,0,0).
func Right(m mgl64.Mat3) mgl64.Vec3 {
	return m.Mul3x1(mgl64.Vec3{1, 0, 0}).Normalize()
}

// Wrap folds an angle accumulator into (-180, 180].
func Wrap(deg float64) float64 {
	if deg > 180 {
		deg -= 360
	}
	if deg <= -180 {
		deg += 360
	}
	return deg
}
