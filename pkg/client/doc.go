// Package client is a minimal meshkv client.
//
// A Client owns one connection and serializes requests on it. Pool keeps
// a bounded set of Clients for concurrent callers.
//
//	c, err := client.Dial("127.0.0.1:6379")
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//	reply, err := c.Do(ctx, "SET", "k", "v")
//
// Addresses starting with "unix:" dial a Unix domain socket.
package client
