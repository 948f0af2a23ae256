/*
Package journal keeps a local history of reconciliation outcomes in BoltDB.

Every `converge apply --journal <dir>` run gets a run ID and appends one Entry
per document, whether it succeeded or failed. `converge history` reads it back.

	<dir>/converge.db
	└── entries   key: <unix-nanos>/<run-id>/<seq>   value: Entry as JSON

Keys sort chronologically, so the newest entries are at the end of the bucket.
Entries keep the action taken and the names of the fields that differed, never
the remote objects themselves.
*/
package journal
