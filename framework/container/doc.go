// Package container is the runtime resolution engine: it indexes provider
// descriptors by type and answers "give me the instance(s) of T".
//
// # Overview
//
// Providers are registered under their root type and any additional wire
// types. Each erased type owns a Bean holding its providers, split into a
// primary, unqualified providers, qualified providers and typed partitions for
// concrete generic specialisations. A query looks up the Bean for the erased
// type and asks it for one provider (or all of them), handing real ambiguity to
// a pluggable ConflictResolver.
//
// # Container Lifecycle
//
//  1. Create:   c := container.New(container.WithSource(src))
//  2. Load:     res, err := c.Load(ctx)   (resolve anything after this)
//  3. Augment:  c.Register(testDouble)    (valid at any time)
//  4. Reset:    c.Clear()
//
// # Resolving
//
//	// Untyped
//	v, ok, err := c.Get(types.Of("shapes.Box", types.Of("shapes.Shape")))
//
//	// Mandatory
//	v, err := c.Require(types.TypeOf[*Mailer]())
//
//	// Generic (preferred, no type assertion)
//	mailer, err := container.Resolve[*Mailer](c)
//	replica, err := container.ResolveNamed[*sql.DB](c, "replica")
//	all, err := container.ResolveAll[Plugin](c)
//
// # Primary and Qualifiers
//
// A primary provider always wins an unqualified query for its Bean. Qualified
// providers are reached directly with GetQualified, and take part in an
// unqualified query only as ordinary candidates.
//
// # Conditional Providers
//
// A provider with a Condition is registered during Load once the condition
// matches the container's state:
//
//	cond := container.All(
//	    container.OnBean(types.TypeOf[*Config]()),
//	    container.OnProperty("CACHE_ENABLED", "true"),
//	)
//
// Conditions are retried in rounds until a round applies nothing, so chains of
// conditions resolve regardless of declaration order. Each extra link in a
// chain costs a round; Load logs a hint once the configured threshold is hit.
//
// # Conflict Resolution
//
//	container.New(container.WithResolver(container.StrictResolver{}))
//
// StrictResolver fails on any ambiguity, StandardResolver prefers the exact then
// narrowest declared type, then the lowest Order, then the earliest
// registration. OrderResolver picks the unique lowest Order.
package container
