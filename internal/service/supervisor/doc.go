// Package supervisor launches long-running executables as detached
// background processes. The contract is spawn-and-forget: Launch returns a
// start confirmation and explicitly disclaims responsibility for the child's
// continued existence. Readiness ordering between services is encoded by the
// caller issuing separate sequential calls, never by the supervisor.
package supervisor
