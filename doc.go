// Package cellclust clusters single-cell feature vectors by community
// detection on a shared-neighbor similarity graph.
//
// The pipeline follows the PhenoGraph family of methods used in imaging
// cytometry: compute the k nearest neighbors of every cell, link cells
// whose neighborhoods overlap into a weighted graph, and partition the
// graph by greedy modularity maximization (Louvain).
//
// # Quick Start
//
//	ctx := context.Background()
//	p := cellclust.New("cells.csv", "out",
//	    cellclust.WithNeighbors(30),
//	    cellclust.WithResolution(1.0),
//	)
//	res, err := p.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Clusters, res.Modularity)
//
// # Stages
//
//	feature: load the CSV, drop morphology/DNA columns, log-transform
//	knn:     exact or HNSW neighbor search behind one Searcher interface
//	simgraph: shared-neighbor (Jaccard) or inverse-distance edge weights
//	louvain: multi-level modularity optimization
//	qc:      run summary, cluster sizes, optional graph export
//	sink:    local directory, s3:// or minio:// artifact destinations
//
// Runs are deterministic for a fixed input and configuration: neighbor
// lists break distance ties by row index, vertices move in input order
// unless a shuffle seed is set, and gain ties resolve to the lowest
// community label.
//
// # Errors
//
// Every failure maps onto a small taxonomy callers can match with
// errors.Is / errors.As: ErrInvalidDimension, ErrDegenerateInput,
// ErrEmptyGraph, ErrNonConvergence and ErrIO. Any error aborts the run
// before results are written; there are no partial results.
package cellclust
