// Package testkit holds captured tool output and invariant checks shared by
// the package tests.
package testkit

// EUStackCapture is `eu-stack -p 14794` output with four threads; the last
// two share a stack.
const EUStackCapture = `
PID 14794 - process
TID 14794:
#0  0x00007f83df80a3ec g_type_check_instance_is_a
#1  0x00007f83df14f421 gdk_frame_clock_request_phase
#19 0x00007f83ddb902e0
#20 0x00007f83ddb90399 __libc_start_main
#21 0x0000557b62938905 _start
TID 14818:
#0  0x00007f83ddba6fea __sigtimedwait
#1  0x00007f83ddba666c sigwait
#2  0x0000557b62997e8b signalThread(void*)
#3  0x00007f83ddbf4359
TID 14820:
#0  0x00007f83ddc5363f __poll
#1  0x00007f83de32a8d7
#2  0x00007f83de32afa0 g_main_context_iteration
#3  0x00007f83de32aff1
#4  0x00007f83de3581a1
TID 14822:
#0  0x00007f83ddc5363f __poll
#1  0x00007f83de32a8d7
#2  0x00007f83de32afa0 g_main_context_iteration
#3  0x00007f83de32aff1
#4  0x00007f83de3581a1

`

// GDBCapture is `thread apply all backtrace` output. LWP 37748 and 37747
// share a stack; LWP 37746 lacks frames #5 and #6.
const GDBCapture = `
Thread 3 (Thread 0x7f29ce816740 (LWP 37746) "test"):
#0  0x00007f29ce8db9e7 in clock_nanosleep () from /usr/lib64/libc.so.6
#1  0x00007f29ce8e6a47 in nanosleep () from /usr/lib64/libc.so.6
#2  0x00007f29ce8f7bce in sleep () from /usr/lib64/libc.so.6
#3  0x000055723be89162 in func2 () at test.c:5
#4  0x000055723be8917d in func1 () at test.c:10
#7  0x00007f29ce83f320 in ?? () from /usr/lib64/libc.so.6
#8  0x00007f29ce83f3d9 in __libc_start_main () from /usr/lib64/libc.so.6
#9  0x000055723be89085 in _start ()

Thread 2 (Thread 0x7f29ce816740 (LWP 37748) "test"):
#0  0x00007f29ce8db9e7 in clock_nanosleep () from /usr/lib64/libc.so.6
#1  0x00007f29ce8e6a47 in nanosleep () from /usr/lib64/libc.so.6
#2  0x00007f29ce8f7bce in sleep () from /usr/lib64/libc.so.6
#3  0x000055723be89162 in func2 () at test.c:5
#4  0x000055723be8917d in func1 () at test.c:10
#5  0x000055723be8918d in func () at test.c:15
#6  0x000055723be891af in main (argc=1, argv=0x7ffec118b6f8) at test.c:19
#7  0x00007f29ce83f320 in ?? () from /usr/lib64/libc.so.6
#8  0x00007f29ce83f3d9 in __libc_start_main () from /usr/lib64/libc.so.6
#9  0x000055723be89085 in _start ()

Thread 1 (Thread 0x7f29ce816740 (LWP 37747) "test"):
#0  0x00007f29ce8db9e7 in clock_nanosleep () from /usr/lib64/libc.so.6
#1  0x00007f29ce8e6a47 in nanosleep () from /usr/lib64/libc.so.6
#2  0x00007f29ce8f7bce in sleep () from /usr/lib64/libc.so.6
#3  0x000055723be89162 in func2 () at test.c:5
#4  0x000055723be8917d in func1 () at test.c:10
#5  0x000055723be8918d in func () at test.c:15
#6  0x000055723be891af in main (argc=1, argv=0x7ffec118b6f8) at test.c:19
#7  0x00007f29ce83f320 in ?? () from /usr/lib64/libc.so.6
#8  0x00007f29ce83f3d9 in __libc_start_main () from /usr/lib64/libc.so.6
#9  0x000055723be89085 in _start ()

[Inferior 1 (process 37746) detached]
`

// GDBSegfault is a single-thread gdb capture stopped in a signal handler.
const GDBSegfault = `
Thread 1 (Thread 0x7f0000000001 (LWP 4242) "crashy"):
#0  0x00007f0000001000 in raise () from /usr/lib64/libc.so.6
#1  <signal handler called>
#2  0x0000000000401136 in boom (p=0x0) at crashy.c:4
#3  0x0000000000401150 in main () at crashy.c:9
`
