// Package retention deletes element-info records that have not been updated
// within the retention window (30 days by default).
//
// The sweep runs synchronously at the start of every element-info list
// request, before the request's own filter is applied, so a response never
// contains an expired record. The core decision is the pure function
// Expired; Sweeper applies it to a store and Scheduler can additionally run
// it on a cron schedule.
package retention
