// Package attribution credits funnel actions (click, signup, rsvp) to invite codes.
//
// A visitor's state lives in a KV with two documented keys: KeyReferralCode holds the
// last code seen in a ?ref= parameter, KeySessionID holds an anonymous id that bridges
// actions taken before and after sign-in. The HTTP layer backs the KV with cookies;
// tests use MemoryKV.
//
// Flow: ResolveQuery stores the code, SessionID mints the session, Recorder.Track
// appends one referral row per action, Aggregator.ComputeStats turns the rows into
// per-code and overall conversion rates.
package attribution
