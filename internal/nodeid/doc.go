/*
Package nodeid parses spawner keys, the stable strings describing how a node
is constructed. Three shapes are recognised:

	Math.AddInt                    callable identifier
	BP_Player:Health               owner:member pair
	/Script/Nodes.K2Node_Knot      kind or class path

Parsing only classifies the key; resolving it against the action catalog is
the spawner package's job.
*/
package nodeid
