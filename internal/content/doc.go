// Package content defines the educational content screens (courses, lessons,
// exercises, quizzes and questions) and the operations an administrator can
// run on them.
//
// A [Screen] is the per-screen schema: where its rows come from, which
// columns and filters the data view shows, and which fields may be written.
// Screens register themselves in init and are looked up by key.
//
// Row and global actions travel as [Command] values through a [Dispatcher].
// Persistence is delegated to a [Repository]; the [Service] ties the two
// together and builds [dataview.View] values for the web layer.
package content
