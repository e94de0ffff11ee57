// Package tire implements the combined-slip magic-formula tire model used
// by the extended single-track dynamics.
package tire

import (
	"math"

	"github.com/velox-sim/velox/internal/params"
)

// magic is the Pacejka sine curve D*sin(C*atan(Bx - E*(Bx - atan(Bx)))).
func magic(b, c, d, e, x float64) float64 {
	bx := b * x
	return d * math.Sin(c*math.Atan(bx-e*(bx-math.Atan(bx))))
}

// weight is the cosine-shaped combined-slip weighting curve.
func weight(b, c, e, x float64) float64 {
	bx := b * x
	return math.Cos(c * math.Atan(bx-e*(bx-math.Atan(bx))))
}

// saturate bounds a force magnitude at the friction budget mu*Fz.
func saturate(f, mu, fz float64) float64 {
	lim := mu * fz
	return math.Max(-lim, math.Min(lim, f))
}

// Longitudinal returns the pure longitudinal force for slip ratio kappa,
// camber gamma and vertical load fz. Kappa follows the 1 - R*omega/u
// convention: wheel spin-up (drive) is negative, lockup is positive.
func Longitudinal(kappa, gamma, fz, mu float64, p *params.Tire) float64 {
	// flip into the standard Pacejka convention where drive slip is positive
	k := -kappa

	sHx := p.PHx1
	sVx := fz * p.PVx1
	kx := k + sHx
	muX := p.PDx1 * (1 - p.PDx3*gamma*gamma)
	cx := p.PCx1
	dx := muX * fz
	ex := p.PEx1
	bx := fz * p.PKx1 / (cx * dx)

	return saturate(magic(bx, cx, dx, ex, kx)+sVx, mu, fz)
}

// Lateral returns the pure lateral force for slip angle alpha and the
// effective lateral friction coefficient used by the combined correction.
func Lateral(alpha, gamma, fz, mu float64, p *params.Tire) (fy, muY float64) {
	sgn := 1.0
	if gamma < 0 {
		sgn = -1.0
	}
	sHy := sgn * (p.PHy1 + p.PHy3*math.Abs(gamma))
	sVy := sgn * fz * (p.PVy1 + p.PVy3*math.Abs(gamma))
	ay := alpha + sHy
	muY = p.PDy1 * (1 - p.PDy3*gamma*gamma)
	cy := p.PCy1
	dy := muY * fz
	ey := p.PEy1
	by := fz * p.PKy1 / (cy * dy)

	return saturate(magic(by, cy, dy, ey, ay)+sVy, mu, fz), muY
}

// CombinedLongitudinal corrects the pure longitudinal force f0x for a
// simultaneous lateral slip alpha (unit friction ellipse).
func CombinedLongitudinal(kappa, alpha, f0x float64, p *params.Tire) float64 {
	sh := p.RHx1
	as := alpha + sh
	b := p.RBx1 * math.Cos(math.Atan(p.RBx2*kappa))
	c := p.RCx1
	e := p.REx1

	d := f0x / weight(b, c, e, sh)
	return d * weight(b, c, e, as)
}

// CombinedLateral corrects the pure lateral force f0y for a simultaneous
// longitudinal slip kappa.
func CombinedLateral(kappa, alpha, gamma, muY, fz, f0y float64, p *params.Tire) float64 {
	sh := p.RHy1
	ks := kappa + sh
	b := p.RBy1 * math.Cos(math.Atan(p.RBy2*(alpha-p.RBy3)))
	c := p.RCy1
	e := p.REy1

	dv := muY * fz * (p.RVy1 + p.RVy4*gamma) * math.Cos(math.Atan(p.RVy3*math.Tan(alpha)))
	sv := dv * math.Sin(p.RVy5*math.Atan(p.RVy6*kappa))

	d := f0y / weight(b, c, e, sh)
	return d*weight(b, c, e, ks) + sv
}

// Forces evaluates the full combined-slip force pair for one axle.
func Forces(kappa, alpha, fz, mu float64, p *params.Tire) (fx, fy float64) {
	f0x := Longitudinal(kappa, 0, fz, mu, p)
	f0y, muY := Lateral(alpha, 0, fz, mu, p)
	fx = saturate(CombinedLongitudinal(kappa, alpha, f0x, p), mu, fz)
	fy = saturate(CombinedLateral(kappa, alpha, 0, muY, fz, f0y, p), mu, fz)
	return fx, fy
}
