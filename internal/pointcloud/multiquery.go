package pointcloud

import "strings"

// MultiQuery memoizes k-d tree construction over a Dataset by
// (selection, dynamic, metric name), so repeated queries over the same
// column set reuse one Tree instead of rebuilding it.
type MultiQuery struct {
	ds    *Dataset
	cache map[string]*Tree
}

// NewMultiQuery returns a MultiQuery bound to ds.
func NewMultiQuery(ds *Dataset) *MultiQuery {
	return &MultiQuery{ds: ds, cache: make(map[string]*Tree)}
}

// namedMetric pairs a Metric with the name used in the cache key; Trees
// requested with the same name, selection and dynamic flag share one
// cache entry.
type namedMetric struct {
	name   string
	metric Metric
}

var (
	metricL2Squared = namedMetric{"l2squared", L2Squared}
	metricL1        = namedMetric{"l1", L1}
)

func key(selection []string, dynamic bool, metricName string) string {
	var b strings.Builder
	b.WriteString(metricName)
	b.WriteByte('|')
	if dynamic {
		b.WriteByte('d')
	}
	b.WriteByte('|')
	b.WriteString(strings.Join(selection, ","))
	return b.String()
}

// Query returns the memoized Tree for (selection, dynamic, metric),
// building and caching it on first use.
func (mq *MultiQuery) Query(selection []string, dynamic bool, metric namedMetric) (*Tree, error) {
	k := key(selection, dynamic, metric.name)
	if t, ok := mq.cache[k]; ok {
		return t, nil
	}
	var t *Tree
	var err error
	if dynamic {
		t, err = NewDynamicTree(mq.ds, selection, metric.metric)
	} else {
		t, err = NewTree(mq.ds, selection, metric.metric)
	}
	if err != nil {
		return nil, err
	}
	mq.cache[k] = t
	return t, nil
}

// QueryL2Squared is a convenience wrapper for the default metric.
func (mq *MultiQuery) QueryL2Squared(selection []string, dynamic bool) (*Tree, error) {
	return mq.Query(selection, dynamic, metricL2Squared)
}

// QueryL1 is a convenience wrapper for the Manhattan-distance metric.
func (mq *MultiQuery) QueryL1(selection []string, dynamic bool) (*Tree, error) {
	return mq.Query(selection, dynamic, metricL1)
}
