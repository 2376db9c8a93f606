/*
Package session serializes access to runs.

A Manager guards each run id with a local, reference-counted mutex and,
when configured with a DistributedLocker, with a lock shared by every replica.
The engine facade holds the run lock for the whole of an Execute or Resume
call that names its run id, so two callers never advance the same run at once.
*/
package session
