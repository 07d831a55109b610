package partition

// Metrics describes how evenly a set of partitions splits the work.
type Metrics struct {
	Sizes         []uint64 // Nodes per partition
	Weights       []uint64 // Summed degree per partition; nil without a DegreeFunction
	LoadBalance   float64  // 0-1 over node counts (1 = perfect balance)
	WeightBalance float64  // 0-1 over weights; equals LoadBalance without weights
}

// ComputeMetrics analyzes partition quality. degrees may be nil.
func ComputeMetrics(parts []Partition, degrees DegreeFunction) *Metrics {
	m := &Metrics{Sizes: make([]uint64, len(parts))}
	for i, p := range parts {
		m.Sizes[i] = p.Length
	}
	m.LoadBalance = balance(m.Sizes)
	m.WeightBalance = m.LoadBalance

	if degrees != nil {
		m.Weights = make([]uint64, len(parts))
		for i, p := range parts {
			for n := range p.Nodes() {
				m.Weights[i] += degrees.Degree(n)
			}
		}
		m.WeightBalance = balance(m.Weights)
	}
	return m
}

// Overloaded returns the indices of partitions whose size exceeds the mean
// by more than tolerance (0.1 = 10%).
func (m *Metrics) Overloaded(tolerance float64) []int {
	if len(m.Sizes) == 0 {
		return nil
	}
	var total uint64
	for _, s := range m.Sizes {
		total += s
	}
	avg := float64(total) / float64(len(m.Sizes))

	var over []int
	for i, s := range m.Sizes {
		if float64(s) > avg*(1+tolerance) {
			over = append(over, i)
		}
	}
	return over
}

// balance maps the variance of values around their mean into (0, 1].
func balance(values []uint64) float64 {
	if len(values) == 0 {
		return 1
	}
	var total float64
	for _, v := range values {
		total += float64(v)
	}
	avg := total / float64(len(values))
	if avg == 0 {
		return 1
	}

	variance := 0.0
	for _, v := range values {
		diff := float64(v) - avg
		variance += diff * diff
	}
	variance /= float64(len(values))
	return 1.0 / (1.0 + variance/avg)
}
