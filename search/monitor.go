package search

import "github.com/poiesic/podsearch/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
//
// AfterVectorSearch and AfterTextSearch are invoked from the two retrieval
// goroutines and may run concurrently; implementations of those two hooks
// must be safe for concurrent use. All other hooks are called sequentially.
type SearchMonitor interface {
	Start(query string)
	AfterTermExtraction(terms map[string]float64)
	AfterEmbedding(dimensions int, cached bool)
	EmbeddingFailed(err error)
	AfterVectorSearch(fragments []core.Fragment, err error)
	AfterTextSearch(fragments []core.Fragment, err error)
	AfterFusion(fragments []core.Fragment)
	AfterDedupe(fragments []core.Fragment)
	Finish(result *core.FusedResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                             {}
func (n *noopMonitor) AfterTermExtraction(_ map[string]float64)   {}
func (n *noopMonitor) AfterEmbedding(_ int, _ bool)               {}
func (n *noopMonitor) EmbeddingFailed(_ error)                    {}
func (n *noopMonitor) AfterVectorSearch(_ []core.Fragment, _ error) {}
func (n *noopMonitor) AfterTextSearch(_ []core.Fragment, _ error)  {}
func (n *noopMonitor) AfterFusion(_ []core.Fragment)              {}
func (n *noopMonitor) AfterDedupe(_ []core.Fragment)              {}
func (n *noopMonitor) Finish(_ *core.FusedResult)                 {}
