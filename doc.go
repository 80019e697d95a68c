/*
go-vidstab provides video stabilization for Go.  It estimates the camera
motion between consecutive frames, accumulates it into a camera trajectory,
smooths that trajectory over a temporal window and renders each frame with
the transform that moves it from the jittery path onto the smooth one.  A
fixed zoom hides the borders exposed by the correction.

An object-lock mode instead follows a cloud of feature points around a
subject and compensates only their motion, keeping the subject fixed in
frame.

Video decoding, encoding and the computer vision primitives are consumed
through the interfaces of the video and motion packages.  The cv package
provides an OpenCV backend via GoCV and the memvideo package a pure Go in
memory backend.

See example code and usage in the example subdirectory.
*/
package vidstab
