// Package family defines the genealogical data model consumed by the layout
// pipeline: persons, partnerships and the tree document that holds them.
//
// # Data Model
//
// A [Person] lists up to two parents, any number of children and the
// partnerships it takes part in. A [Partnership] joins exactly two persons,
// carries a [Status] and claims the children born to it. A person may have
// several partnerships, serial or concurrent.
//
// Partnership child lists are the ground truth for parent-child edges: a
// person whose parents are recorded but who is not claimed by any
// partnership is treated as a loose reference. [Index.Children] only falls
// back to a person's own ChildIDs when that person has no partnership at
// all.
//
// # Documents
//
// Trees serialize to JSON with camelCase keys:
//
//	{
//	  "version": 1,
//	  "persons": {"p1": {"id": "p1", "name": "Ada", "gender": "female", ...}},
//	  "partnerships": {"m1": {"id": "m1", "person1Id": "p1", "person2Id": "p2", ...}}
//	}
//
// [ReadTree], [ReadTreeFile], [WriteTree] and [MarshalTree] handle the
// encoding. MarshalTree is canonical (map keys are sorted), so its output is
// suitable for content hashing.
//
// # Index
//
// A [Tree] is immutable during layout. [NewIndex] precomputes the lookups
// the pipeline needs (partnerships per person, partnerships claiming a
// child) so concurrent layouts can share one tree without locking.
package family
