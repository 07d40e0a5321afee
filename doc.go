/*

Emdtree stores trees of typed nodes, each carrying flat metadata
records, in self-describing container files.

Vocabulary:

- container: one file holding a header and one or more stored trees
- header: attributes on the container's top group naming the format
	version, a UUID and who wrote the file
- root: the top node of a tree; stored as a group tagged "root"
- node: a unit of a tree; may carry a payload and metadata records
- payload: a node's leaf data (Array, PointList, PointListArray, Custom)
- kind: the registered name that rebuilds a payload on read
- treepath: a node's path below its root, "/a/b"; "" for a root
- emdpath: a root name plus a treepath, "/root/a/b"
- metadata record: a named flat map of typed values
- bundle: the group holding a node's metadata records
- mode: how a save treats data already stored (write, overwrite,
	append, appendover)
- depth: how much of a tree a read or write touches (the node and
	its subtree, the node alone, or the subtree without the node)

*/

package emdtree
