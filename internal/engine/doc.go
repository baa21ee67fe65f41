// Package engine implements the composition search.
//
// The engine runs a best-first branch-and-bound search over the chunk
// graph built by package graph. Each node is a partial first part: the
// chunks rung so far, the score for both stroke alignments, the rows per
// method and the set of chunks that would now be false.
//
// ARCHITECTURE:
//
// Shared Frontier:
// Nodes wait in one priority queue ordered by an admissible bound on the
// best score any extension could reach: the lower of the per-row rate
// bound and the graph's finish bound (see graph.FinishBound), which also
// charges for the calls a long enough part cannot avoid. A fixed pool of
// workers pops the most promising node, expands it along every link of its
// last chunk, and pushes the surviving children back.
//
// Best-K Results:
// Completed compositions go into a bounded result set. Once it is full
// its K-th score is published atomically, and any node whose bound falls
// below it is discarded without being expanded.
//
// Termination:
// The search ends when the frontier is empty and no worker is expanding a
// node, when a node, time or frontier budget is reached, or when the
// context is cancelled. Budget stops are reported as BudgetExceededError
// alongside the results found so far.
//
// CRITICAL PATTERNS:
//
// Immutable Tables:
// The graph and every table hanging off it are read-only during the
// search and shared between workers without locks.
//
// Deterministic Results:
// A search that runs to exhaustion returns the same compositions in the
// same order whatever the worker count. Ties in score are broken by
// length, then by call string.
package engine
