// Package history persists fetched price points.
//
// The writer drains points from a growable buffer and batch-inserts them
// into the price_points table. It is optional and append-only; the serving
// path never reads from the database, and the rolling window is rebuilt
// empty on restart regardless.
//
// Expected schema:
//
//	CREATE TABLE price_points (
//	    observed_at BIGINT NOT NULL,  -- microseconds since epoch
//	    price       DOUBLE PRECISION NOT NULL,
//	    source      TEXT NOT NULL,
//	    instance_id TEXT NOT NULL,
//	    PRIMARY KEY (instance_id, observed_at)
//	);
package history
