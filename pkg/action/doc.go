// Package action resolves an action name against an effective
// [config.Document] and runs the rules whose predicates hold.
//
// Rules are considered in document order. Each rule's predicate is evaluated
// afresh on every resolution, and every eligible rule is executed, one after
// another, whether or not an earlier one failed.
package action
