package result

// Tee returns an Aggregator that forwards every call to each of aggs in order.
func Tee(aggs ...Aggregator) Aggregator {
	return tee(aggs)
}

type tee []Aggregator

func (t tee) ReportStart(info RunInfo) {
	for _, a := range t {
		a.ReportStart(info)
	}
}

func (t tee) ReportResult(r TestResult) {
	for _, a := range t {
		a.ReportResult(r)
	}
}

func (t tee) ReportSummary(s Summary) {
	for _, a := range t {
		a.ReportSummary(s)
	}
}
