// Package cmdwire provides a client for a cmdwire server over TCP.
//
// Example:
//
//	client, err := cmdwire.Connect(cmdwire.WithPort(6380))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Set("foo", "bar")
//	val, ok, err := client.Get("foo")
package cmdwire
