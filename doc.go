// Package attrflow provides an attribute-resolution connector framework:
// pluggable backends that look up a principal's attributes in directory,
// relational, key/value and document stores and return them as a
// normalized attribute map.
//
// # Architecture
//
// Every backend is the same orchestrator composed with four small
// collaborators instead of a subclass hierarchy:
//
//  1. ConnectionProvider leases and returns backend connections from a
//     bounded pool.
//
//  2. QueryBuilder renders an immutable, executable query from the
//     per-request resolution context.
//
//  3. ResultMapper normalizes the backend's raw result into an attribute
//     map.
//
//  4. Validator probes backend health during initialization and on the
//     revalidation interval.
//
// The orchestrator owns the lifecycle state machine (uninitialized,
// initializing, ready, failed, destroyed), the retrieval sequence, the
// no-result policy and the unified error taxonomy; backends differ only in
// the collaborators they plug in.
//
// # Quick Start
//
// Resolve attributes through a configured connector:
//
//	import (
//	    "context"
//	    "github.com/attrflow/attrflow/pkg/config"
//	    "github.com/attrflow/attrflow/pkg/connector/core"
//	    "github.com/attrflow/attrflow/pkg/connector/registry"
//	    _ "github.com/attrflow/attrflow/pkg/connector/backends/directory"
//	)
//
//	file, _ := config.Load("attrflow.yaml")
//	conn, _ := registry.Create(file.Connectors[0])
//	_ = conn.Initialize(context.Background())
//	defer conn.Destroy(context.Background())
//
//	rc := core.NewResolutionContext("alice", "req-1", nil)
//	attrs, err := conn.Resolve(context.Background(), rc)
//
// # Packages
//
//   - pkg/attribute: normalized attribute values and multi-valued maps
//   - pkg/template: {name} placeholder templates for filters, statements
//     and keys
//   - pkg/config: connector configuration, defaults and YAML loading
//   - pkg/connector/core: the connector contracts and resolution context
//   - pkg/connector/orchestrator: the generic connector state machine
//   - pkg/connector/registry: backend registration and instantiation
//   - pkg/connector/backends/...: the directory, relational, keyvalue and
//     document bindings
//   - pkg/errors: the unified error taxonomy
//   - pkg/logger, pkg/metrics: structured logging and Prometheus metrics
package attrflow
