package consts

const (
	MAXITER   = 50   // Gauss-Seidel iteration cap
	TOLERANCE = 1e-6 // convergence tolerance on max |Vnew - Vold| (pu)
)
