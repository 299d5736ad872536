/*
Package orogen reads component definition files.

A definition file is a YAML document describing one project: the types it
declares, the task models of its task library and the deployments it ships.
Type kit registry files use the same layout with only the types section.

	name: nav
	types:
	  - name: /Nav/Pose
	    kind: compound
	    fields:
	      - {name: x, type: /double}
	tasks:
	  - name: Controller            # qualified as nav::Controller
	    implements: [Nav::Follower]
	    ports:
	      - {name: pose, direction: output, type: /Nav/Pose}
	deployments:
	  - name: nav_test
	    tasks:
	      - {name: controller, model: Controller, activity: periodic, period: 0.1}
*/
package orogen
