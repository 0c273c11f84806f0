// Package ordering holds the restaurant ordering core: the menu catalog,
// per-customer sessions, the checkout dialogue, the durable order stores, the
// staff status workflow, and sales statistics.
//
// Chat transports sit outside this tree's domain packages and call into
// ordering/app with parsed commands, decoded actions, and free text. The app
// returns structured views; rendering them into display text happens at the
// transport boundary.
package ordering
