// Package hierarchy models a business glossary as a tree and flattens it into
// import-ready records.
//
// A glossary arrives as decoded JSON built from three shapes: a single-key
// object mapping a label to its children (Group), an array of nodes (List), or
// a plain string (Leaf). Parse converts decoded JSON into that closed union and
// rejects anything else with a ShapeError.
//
// Flatten walks the tree depth-first in pre-order and emits one Record per
// Group or Leaf. Each record carries a fresh UUID, its classification
// (glossary, category or term), the slash-joined path of labels from the root,
// and links to its parent and root record. Lists only group siblings and
// never produce records of their own.
//
// The whole tree is validated before the first record is built, so a failed
// call never yields a partial batch.
package hierarchy
