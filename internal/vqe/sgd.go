package vqe

// SGD is the gradient-descent update rule. With zero momentum it reduces to
// plain steepest descent, theta -= lr * grad; with momentum it carries a
// velocity accumulator across iterations, which is the only internal
// optimizer state.
type SGD struct {
	learningRate float64
	momentum     float64
	velocity     float64
}

// NewSGD creates an update rule with the given learning rate and momentum.
func NewSGD(learningRate, momentum float64) *SGD {
	return &SGD{learningRate: learningRate, momentum: momentum}
}

// Update applies one descent step and returns the new parameter value.
func (o *SGD) Update(theta, gradient float64) float64 {
	o.velocity = o.momentum*o.velocity - o.learningRate*gradient
	return theta + o.velocity
}

// Reset clears the velocity accumulator so the rule can drive a fresh run.
func (o *SGD) Reset() {
	o.velocity = 0
}
