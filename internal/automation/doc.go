// Package automation runs scripted, multi-stage simulations from YAML.
//
// A script names a starting preset and a list of stages. Each stage may
// change physics knobs, resize the bounds and spawn or remove bodies before
// running its frames:
//
//	name: warm-up
//	preset: swarm
//	stages:
//	  - frames: 300
//	  - frames: 300
//	    spawn: 20
//	    params:
//	      restitution: 0.5
package automation
