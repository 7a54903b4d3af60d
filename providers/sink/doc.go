// Package sink is the result channel between the orchestrator and the
// presentation surfaces: a publish/subscribe [Hub] keyed by session id.
//
// Delivery is live only. A surface that attaches late subscribes first and
// then reads the stored session, accepting that a delta may show up in both
// the snapshot and the live feed.
package sink
